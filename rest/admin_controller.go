package rest

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	jobboard "github.com/jobhive/jobhive"
)

// AdminController serves moderation endpoints. Every route assumes the
// RequireAdmin middleware already vetted the actor.
type AdminController struct {
	repo      jobboard.RepositoryManager
	lifecycle *jobboard.LifecycleManager
	logger    jobboard.Logger
}

func NewAdminController(repo jobboard.RepositoryManager, lifecycle *jobboard.LifecycleManager) *AdminController {
	return &AdminController{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    jobboard.NewDefaultLogger(),
	}
}

func (ct *AdminController) WithLogger(logger jobboard.Logger) *AdminController {
	if logger != nil {
		ct.logger = logger
	}
	return ct
}

func (ct *AdminController) Register(router fiber.Router) {
	router.Post("/admin/users/:id/ban", ct.BanUser)
	router.Post("/admin/users/:id/unban", ct.UnbanUser)
	router.Post("/admin/companies/:id/ban", ct.BanCompany)
	router.Post("/admin/companies/:id/unban", ct.UnbanCompany)
	router.Post("/admin/companies/:id/approve", ct.ApproveCompany)
	router.Get("/admin/companies/pending", ct.PendingCompanies)
}

func (ct *AdminController) BanUser(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.BanUser(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *AdminController) UnbanUser(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.UnbanUser(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *AdminController) BanCompany(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.BanCompany(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *AdminController) UnbanCompany(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.UnbanCompany(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *AdminController) ApproveCompany(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.ApproveCompany(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *AdminController) PendingCompanies(c *fiber.Ctx) error {
	companies, err := ct.repo.Companies().ListPendingApproval(c.UserContext())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not list pending companies")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"companies": companies,
	})
}

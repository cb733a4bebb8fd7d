package rest

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	jobboard "github.com/jobhive/jobhive"
)

// CompanyController serves company CRUD and HR membership management.
type CompanyController struct {
	repo      jobboard.RepositoryManager
	lifecycle *jobboard.LifecycleManager
	logger    jobboard.Logger
}

func NewCompanyController(repo jobboard.RepositoryManager, lifecycle *jobboard.LifecycleManager) *CompanyController {
	return &CompanyController{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    jobboard.NewDefaultLogger(),
	}
}

func (ct *CompanyController) WithLogger(logger jobboard.Logger) *CompanyController {
	if logger != nil {
		ct.logger = logger
	}
	return ct
}

// Register mounts the company routes; all require authentication.
func (ct *CompanyController) Register(router fiber.Router) {
	router.Post("/companies", ct.Create)
	router.Get("/companies/:id", ct.Get)
	router.Put("/companies/:id", ct.Update)
	router.Delete("/companies/:id", ct.Delete)
	router.Post("/companies/:id/hrs", ct.AddHR)
	router.Delete("/companies/:id/hrs/:userId", ct.RemoveHR)
}

// CompanyPayload is the create/update body.
type CompanyPayload struct {
	Name              string `json:"company_name"`
	Description       string `json:"description"`
	Industry          string `json:"industry"`
	Address           string `json:"address"`
	NumberOfEmployees string `json:"number_of_employees"`
	Email             string `json:"company_email"`
}

func (r CompanyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (ct *CompanyController) Create(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	var req CompanyPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid company payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	company := &jobboard.Company{
		ID:                uuid.New(),
		Name:              req.Name,
		Description:       req.Description,
		Industry:          req.Industry,
		Address:           req.Address,
		NumberOfEmployees: req.NumberOfEmployees,
		Email:             req.Email,
		CreatedBy:         &actor.ID,
	}

	var created *jobboard.Company

	// creation and the owner's HR membership commit together: the owner
	// is always a member of the HR set
	err := ct.repo.RunInTx(c.UserContext(), nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := ct.repo.Companies().CreateTx(ctx, tx, company)
		if err != nil {
			return err
		}
		created = record

		return ct.repo.Companies().AddHRTx(ctx, tx, record.ID, actor.ID)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create company")
	}
	created.HRs = []uuid.UUID{actor.ID}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"company": created,
	})
}

func (ct *CompanyController) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), id)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"company": company,
	})
}

func (ct *CompanyController) Update(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), id)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	if !jobboard.CanAct(actor, jobboard.ActionUpdateCompany, jobboard.CompanyResource{Company: company}) {
		return jobboard.ErrForbidden
	}

	var req CompanyPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid company payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	company.Name = req.Name
	company.Description = req.Description
	company.Industry = req.Industry
	company.Address = req.Address
	company.NumberOfEmployees = req.NumberOfEmployees
	company.Email = req.Email

	updated, err := ct.repo.Companies().Update(c.UserContext(), company, repository.UpdateByID(id.String()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not update company")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"company": updated,
	})
}

func (ct *CompanyController) Delete(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.SoftDeleteCompany(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// HRPayload names the user being granted or revoked HR rights.
type HRPayload struct {
	UserID string `json:"user_id"`
}

func (r HRPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
	)
}

func (ct *CompanyController) AddHR(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), id)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	if !jobboard.CanAct(actor, jobboard.ActionManageHRs, jobboard.CompanyResource{Company: company}) {
		return jobboard.ErrForbidden
	}

	var req HRPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest("invalid user id", err)
	}

	if _, err := ct.repo.Users().GetByIdentifier(c.UserContext(), userID.String()); err != nil {
		return notFoundError(err, "user not found")
	}

	err = ct.repo.RunInTx(c.UserContext(), nil, func(ctx context.Context, tx bun.Tx) error {
		return ct.repo.Companies().AddHRTx(ctx, tx, id, userID)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not add HR")
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *CompanyController) RemoveHR(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), id)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	if !jobboard.CanAct(actor, jobboard.ActionManageHRs, jobboard.CompanyResource{Company: company}) {
		return jobboard.ErrForbidden
	}

	// the owner cannot be removed from the HR set
	if company.CreatedBy != nil && *company.CreatedBy == userID {
		return jobboard.ErrForbidden
	}

	err = ct.repo.RunInTx(c.UserContext(), nil, func(ctx context.Context, tx bun.Tx) error {
		return ct.repo.Companies().RemoveHRTx(ctx, tx, id, userID)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not remove HR")
	}

	return c.JSON(fiber.Map{"success": true})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, badRequest("invalid id parameter", err)
	}
	return id, nil
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("invalid "+field, err)
	}
	return id, nil
}

func notFoundError(err error, msg string) error {
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return goerrors.New(msg, goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}
	return err
}

package rest

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"

	jobboard "github.com/jobhive/jobhive"
)

// UserController serves the authenticated user's own profile.
type UserController struct {
	repo      jobboard.RepositoryManager
	lifecycle *jobboard.LifecycleManager
	cipher    *jobboard.MobileCipher
	region    string
	logger    jobboard.Logger
}

func NewUserController(repo jobboard.RepositoryManager, lifecycle *jobboard.LifecycleManager) *UserController {
	return &UserController{
		repo:      repo,
		lifecycle: lifecycle,
		region:    "US",
		logger:    jobboard.NewDefaultLogger(),
	}
}

func (ct *UserController) WithMobileCipher(cipher *jobboard.MobileCipher, region string) *UserController {
	ct.cipher = cipher
	if region != "" {
		ct.region = region
	}
	return ct
}

func (ct *UserController) WithLogger(logger jobboard.Logger) *UserController {
	if logger != nil {
		ct.logger = logger
	}
	return ct
}

func (ct *UserController) Register(router fiber.Router) {
	router.Get("/users/me", ct.Me)
	router.Put("/users/me", ct.Update)
	router.Put("/users/me/password", ct.ChangePassword)
	router.Delete("/users/me", ct.Delete)
	router.Get("/users/me/applications", ct.MyApplications)
	router.Get("/users/me/companies", ct.MyCompanies)
}

func (ct *UserController) Me(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	return c.JSON(fiber.Map{
		"success": true,
		"user":    actor,
	})
}

// ProfilePayload is the profile update body. Email and role are immutable
// through this endpoint.
type ProfilePayload struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MobileNumber string `json:"mobile_number"`
}

func (r ProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
	)
}

func (ct *UserController) Update(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	if !jobboard.CanAct(actor, jobboard.ActionUpdateProfile, jobboard.SelfResource{User: actor}) {
		return jobboard.ErrForbidden
	}

	var req ProfilePayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid profile payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	actor.FirstName = req.FirstName
	actor.LastName = req.LastName

	if req.MobileNumber != "" {
		if ct.cipher == nil {
			return goerrors.New("mobile storage is not configured", goerrors.CategoryOperation)
		}
		normalized, err := jobboard.NormalizeMobile(req.MobileNumber, ct.region)
		if err != nil {
			return validationError(err)
		}
		encrypted, err := ct.cipher.Encrypt(normalized)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not store mobile number")
		}
		actor.MobileNumber = encrypted
	}

	updated, err := ct.repo.Users().Update(c.UserContext(), actor, repository.UpdateByID(actor.ID.String()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not update profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    updated,
	})
}

// PasswordPayload carries a password change for a signed-in user.
type PasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r PasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

func (ct *UserController) ChangePassword(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	if !jobboard.CanAct(actor, jobboard.ActionChangePassword, jobboard.SelfResource{User: actor}) {
		return jobboard.ErrForbidden
	}

	var req PasswordPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid password payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	if err := jobboard.ComparePasswordAndHash(req.CurrentPassword, actor.PasswordHash); err != nil {
		return jobboard.ErrMismatchedHashAndPassword
	}

	hash, err := jobboard.HashPassword(req.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not hash password")
	}

	// UpdatePassword bumps change_credential_at, which invalidates every
	// token issued before this call.
	if err := ct.repo.Users().UpdatePassword(c.UserContext(), actor.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not update password")
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *UserController) Delete(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	if err := ct.lifecycle.SoftDeleteUser(c.UserContext(), actor, actor.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *UserController) MyApplications(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	applications, err := ct.repo.Applications().ListByUser(c.UserContext(), actor.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not list applications")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"applications": applications,
	})
}

func (ct *UserController) MyCompanies(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	companies, err := ct.repo.Companies().ListManagedBy(c.UserContext(), actor.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not list companies")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"companies": companies,
	})
}

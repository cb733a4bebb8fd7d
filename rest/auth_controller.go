package rest

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	jobboard "github.com/jobhive/jobhive"
	"github.com/jobhive/jobhive/social"
)

// AuthController serves signup, login, token refresh, OTP verification,
// password reset, and the social login round trip.
type AuthController struct {
	auther   *jobboard.Auther
	register *jobboard.RegisterUserHandler
	verify   *jobboard.VerifyOTPHandler
	resetIni *jobboard.InitializePasswordResetHandler
	resetFin *jobboard.FinalizePasswordResetHandler
	social   *social.Authenticator
	logger   jobboard.Logger
	debug    bool
}

func NewAuthController(auther *jobboard.Auther) *AuthController {
	return &AuthController{
		auther: auther,
		logger: jobboard.NewDefaultLogger(),
	}
}

func (a *AuthController) WithRegisterHandler(h *jobboard.RegisterUserHandler) *AuthController {
	a.register = h
	return a
}

func (a *AuthController) WithVerifyHandler(h *jobboard.VerifyOTPHandler) *AuthController {
	a.verify = h
	return a
}

func (a *AuthController) WithPasswordResetHandlers(ini *jobboard.InitializePasswordResetHandler, fin *jobboard.FinalizePasswordResetHandler) *AuthController {
	a.resetIni = ini
	a.resetFin = fin
	return a
}

func (a *AuthController) WithSocialAuthenticator(s *social.Authenticator) *AuthController {
	a.social = s
	return a
}

func (a *AuthController) WithLogger(logger jobboard.Logger) *AuthController {
	if logger != nil {
		a.logger = logger
	}
	return a
}

func (a *AuthController) WithDebug(debug bool) *AuthController {
	a.debug = debug
	return a
}

// Register mounts the auth routes.
func (a *AuthController) Register(router fiber.Router) {
	router.Post("/auth/signup", a.Signup)
	router.Post("/auth/signin", a.Signin)
	router.Post("/auth/verify-otp", a.VerifyOTP)
	router.Post("/auth/forget-password", a.ForgetPassword)
	router.Post("/auth/reset-password", a.ResetPassword)
	router.Post("/auth/refresh-token", a.RefreshToken)
	router.Get("/auth/google", a.GoogleBegin)
	router.Get("/auth/google/callback", a.GoogleCallback)
}

// SignupRequest payload
type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile_number"`
	Password  string `json:"password"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

func (a *AuthController) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid signup payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	if a.debug {
		a.logger.Debug("signup payload: %s", print.MaybePrettyJSON(req))
	}

	var created *jobboard.User
	err := a.register.Execute(c.UserContext(), jobboard.RegisterUserMessage{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Mobile:     req.Mobile,
		Password:   req.Password,
		OnResponse: func(user *jobboard.User) { created = user },
	})
	if err != nil {
		return err
	}

	pair, err := a.auther.IssueFor(created)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    created,
		"tokens":  pair,
	})
}

// SigninRequest payload
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Signin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid signin payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	pair, err := a.auther.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"tokens":  pair,
	})
}

// VerifyOTPRequest payload
type VerifyOTPRequest struct {
	Email   string `json:"email"`
	Code    string `json:"otp"`
	Purpose string `json:"purpose"`
}

func (r VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
		validation.Field(&r.Purpose, validation.Required, validation.In(
			jobboard.PurposeConfirmEmail,
			jobboard.PurposeForgetPassword,
		)),
	)
}

func (a *AuthController) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid OTP payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	err := a.verify.Execute(c.UserContext(), jobboard.VerifyOTPMessage{
		Email:   req.Email,
		Code:    req.Code,
		Purpose: req.Purpose,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// ForgetPasswordRequest payload
type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgetPassword(c *fiber.Ctx) error {
	var req ForgetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	err := a.resetIni.Execute(c.UserContext(), jobboard.InitializePasswordResetMessage{
		Email: req.Email,
	})
	if err != nil {
		return err
	}

	// always OK: this endpoint must not leak which emails exist
	return c.JSON(fiber.Map{"success": true})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"otp"`
	Password string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	err := a.resetFin.Execute(c.UserContext(), jobboard.FinalizePasswordResetMessage{
		Email:    req.Email,
		Code:     req.Code,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// RefreshTokenRequest payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	pair, err := a.auther.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"tokens":  pair,
	})
}

func (a *AuthController) GoogleBegin(c *fiber.Ctx) error {
	if a.social == nil {
		return goerrors.New("social login is not configured", goerrors.CategoryOperation)
	}

	url, err := a.social.BeginURL("google", c.Query("redirect"))
	if err != nil {
		return err
	}

	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (a *AuthController) GoogleCallback(c *fiber.Ctx) error {
	if a.social == nil {
		return goerrors.New("social login is not configured", goerrors.CategoryOperation)
	}

	result, err := a.social.HandleCallback(c.UserContext(), "google", c.Query("code"), c.Query("state"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"user":     result.User,
		"tokens":   result.Tokens,
		"new_user": result.NewUser,
	})
}

func badRequest(msg string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, msg).
		WithCode(goerrors.CodeBadRequest)
}

func validationError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(goerrors.CodeBadRequest)
}

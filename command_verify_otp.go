package jobboard

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyOTPMessage struct {
	Email   string     `json:"email"`
	Code    string     `json:"otp"`
	Purpose OTPPurpose `json:"purpose"`
}

func (e VerifyOTPMessage) Type() string { return "user.verify_otp" }

// VerifyOTPHandler redeems a confirmation code. The engine consumes the
// whole purpose set on success and marks the user confirmed when the
// purpose is email confirmation.
type VerifyOTPHandler struct {
	repo   RepositoryManager
	otp    *OTPEngine
	logger Logger
}

func NewVerifyOTPHandler(repo RepositoryManager, otp *OTPEngine) *VerifyOTPHandler {
	return &VerifyOTPHandler{
		repo:   repo,
		otp:    otp,
		logger: &defLogger{},
	}
}

func (h *VerifyOTPHandler) WithLogger(logger Logger) *VerifyOTPHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyOTPHandler) Execute(ctx context.Context, event VerifyOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during OTP verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyOTPHandler) execute(ctx context.Context, event VerifyOTPMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Purpose != PurposeConfirmEmail && event.Purpose != PurposeForgetPassword {
		return goerrors.New("unknown OTP purpose", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": event.Purpose})
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidOrExpiredOTP
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for OTP verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return err
	}

	if err := h.otp.Verify(ctx, user, event.Purpose, event.Code); err != nil {
		h.logger.Warn("OTP verification refused for %s: %v", event.Purpose, err)
		return err
	}

	return nil
}

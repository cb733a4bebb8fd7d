package jobboard

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(delivered bool)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset.init" }

// InitializePasswordResetHandler issues a reset code for the account.
// Unknown emails complete silently so the endpoint cannot be used to
// probe which addresses exist.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	otp      *OTPEngine
	notifier Notifier
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, otp *OTPEngine) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		otp:      otp,
		notifier: noopNotifier{},
		logger:   &defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithNotifier(n Notifier) *InitializePasswordResetHandler {
	if n != nil {
		h.notifier = n
	}
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			if event.OnResponse != nil {
				event.OnResponse(false)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		// same silent completion: a deleted or banned account is not
		// distinguishable from a missing one through this endpoint
		h.logger.Warn("password reset refused: %v", err)
		if event.OnResponse != nil {
			event.OnResponse(false)
		}
		return nil
	}

	code, err := h.otp.Issue(ctx, user, PurposeForgetPassword)
	if err != nil {
		return err
	}

	if err := h.notifier.PasswordResetCode(ctx, user, code); err != nil {
		h.logger.Warn("reset notification failed: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(true)
	}

	return nil
}

type FinalizePasswordResetMessage struct {
	Email    string `json:"email"`
	Code     string `json:"otp"`
	Password string `json:"new_password"`
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset.finalize" }

// FinalizePasswordResetHandler redeems the reset code and rewrites the
// password. The credential-change timestamp bump makes every
// outstanding token stale in the same statement.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	otp    *OTPEngine
	sink   ActivitySink
	logger Logger
	now    func() time.Time
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, otp *OTPEngine) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		otp:    otp,
		sink:   noopActivitySink{},
		logger: &defLogger{},
		now:    time.Now,
	}
}

func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidOrExpiredOTP
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return err
	}

	if err := h.otp.Verify(ctx, user, PurposeForgetPassword, event.Code); err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := h.repo.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	if err := h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordResetSuccess,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		SubjectID:  user.ID.String(),
		OccurredAt: h.now(),
	}); err != nil {
		h.logger.Warn("activity sink error: %v", err)
	}

	return nil
}

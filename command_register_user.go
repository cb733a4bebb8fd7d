package jobboard

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile_number"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates the account, encrypts the mobile number,
// and kicks off email confirmation. The user starts unconfirmed; the
// confirmation code travels out-of-band.
type RegisterUserHandler struct {
	repo     RepositoryManager
	otp      *OTPEngine
	notifier Notifier
	cipher   *MobileCipher
	region   string
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, otp *OTPEngine) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		otp:      otp,
		notifier: noopNotifier{},
		logger:   &defLogger{},
	}
}

func (h *RegisterUserHandler) WithNotifier(n Notifier) *RegisterUserHandler {
	if n != nil {
		h.notifier = n
	}
	return h
}

func (h *RegisterUserHandler) WithMobileCipher(cipher *MobileCipher, defaultRegion string) *RegisterUserHandler {
	h.cipher = cipher
	h.region = defaultRegion
	return h
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Role = RoleUser
		user.Provider = ProviderSystem

		if event.Mobile != "" {
			mobile, err := h.encryptMobile(event.Mobile)
			if err != nil {
				return err
			}
			user.MobileNumber = mobile
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	code, err := h.otp.Issue(ctx, user, PurposeConfirmEmail)
	if err != nil {
		return err
	}

	if err := h.notifier.VerificationCode(ctx, user, code); err != nil {
		h.logger.Warn("verification notification failed: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

func (h *RegisterUserHandler) encryptMobile(raw string) (string, error) {
	normalized, err := NormalizeMobile(raw, h.region)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid mobile number")
	}

	if h.cipher == nil {
		return "", goerrors.New("mobile encryption is not configured", goerrors.CategoryInternal)
	}

	encrypted, err := h.cipher.Encrypt(normalized)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encrypt mobile number")
	}

	return encrypted, nil
}

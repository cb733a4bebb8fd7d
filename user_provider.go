package jobboard

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// UserTracker is the slice of the user store the provider needs.
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// MaxLoginAttempts is the maximum number of failed attempts a user gets
// in a cool down period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// UserProvider resolves identifiers to identities and enforces the
// login attempt throttle.
type UserProvider struct {
	store     UserTracker
	Validator func(*User) error
	logger    Logger
}

var _ IdentityProvider = (*UserProvider)(nil)

func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:     store,
		logger:    &defLogger{},
		Validator: ensureAuthenticatableUser,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return ensureAuthenticatableUser(user)
}

// VerifyIdentity finds the user, compares the password, and returns the
// identity. Failed comparisons are counted; the counter resets after
// the cool down period or on a successful login.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// too many attempts in the window, cool off
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	return NewIdentityFromUser(user), nil
}

func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if user.DeletedAt != nil {
		return ErrAccountDeleted
	}

	if user.BannedAt != nil {
		return ErrAccountBanned
	}

	return nil
}

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

func (u UserIdentity) Username() string {
	if u.user == nil {
		return ""
	}
	return u.user.Username()
}

func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return string(u.user.Role)
}

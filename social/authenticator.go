package social

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"

	jobboard "github.com/jobhive/jobhive"
)

// Config configures the social authenticator.
type Config struct {
	StateSigningKey      []byte
	StateTTL             time.Duration
	RequireEmailVerified bool
}

// Authenticator orchestrates social login: state round trip, code
// exchange, profile fetch, and account provisioning.
type Authenticator struct {
	providers map[string]Provider
	users     jobboard.Users
	auther    *jobboard.Auther
	state     StateManager
	sink      jobboard.ActivitySink
	logger    jobboard.Logger
	config    Config
}

// Option configures the social authenticator.
type Option func(*Authenticator)

func NewAuthenticator(users jobboard.Users, auther *jobboard.Auther, config Config, opts ...Option) *Authenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	sa := &Authenticator{
		providers: make(map[string]Provider),
		users:     users,
		auther:    auther,
		sink:      jobboard.ActivitySinkFunc(nil),
		logger:    jobboard.NewDefaultLogger(),
		config:    cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.state == nil {
		sa.state = NewHMACStateManager(cfg.StateSigningKey, cfg.StateTTL)
	}

	return sa
}

// WithProvider registers a social provider.
func WithProvider(provider Provider) Option {
	return func(sa *Authenticator) {
		if provider != nil {
			sa.providers[provider.Name()] = provider
		}
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) Option {
	return func(sa *Authenticator) {
		if sm != nil {
			sa.state = sm
		}
	}
}

// WithActivitySink configures the sink social logins are reported to.
func WithActivitySink(sink jobboard.ActivitySink) Option {
	return func(sa *Authenticator) {
		if sink != nil {
			sa.sink = sink
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger jobboard.Logger) Option {
	return func(sa *Authenticator) {
		if logger != nil {
			sa.logger = logger
		}
	}
}

// BeginURL produces the provider redirect URL with a signed state.
func (sa *Authenticator) BeginURL(providerName, redirect string) (string, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := sa.state.Issue(redirect)
	if err != nil {
		return "", err
	}

	return provider.AuthCodeURL(state), nil
}

// CallbackResult is what a completed social login hands back.
type CallbackResult struct {
	User     *jobboard.User
	Tokens   *jobboard.TokenPair
	Redirect string
	NewUser  bool
}

// HandleCallback completes the flow: verifies state, exchanges the
// code, fetches the profile, and provisions or loads the local account.
// First-time Google users land confirmed with a random password hash;
// they can only authenticate through the provider until they run a
// password reset.
func (sa *Authenticator) HandleCallback(ctx context.Context, providerName, code, state string) (*CallbackResult, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, ErrUnknownProvider
	}

	redirect, err := sa.state.Verify(state)
	if err != nil {
		return nil, err
	}

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "code exchange failed")
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "profile fetch failed")
	}

	if sa.config.RequireEmailVerified && !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user, created, err := sa.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	pair, err := sa.auther.IssueFor(user)
	if err != nil {
		return nil, err
	}

	if err := sa.sink.Record(ctx, jobboard.ActivityEvent{
		EventType:  jobboard.ActivityEventSocialLogin,
		Actor:      jobboard.ActorRef{ID: user.ID.String(), Type: "user"},
		SubjectID:  user.ID.String(),
		Metadata:   map[string]any{"provider": providerName, "new_user": created},
		OccurredAt: time.Now(),
	}); err != nil {
		sa.logger.Warn("activity sink error: %v", err)
	}

	return &CallbackResult{
		User:     user,
		Tokens:   pair,
		Redirect: redirect,
		NewUser:  created,
	}, nil
}

func (sa *Authenticator) resolveUser(ctx context.Context, profile *Profile) (*jobboard.User, bool, error) {
	user, err := sa.users.GetByIdentifier(ctx, profile.Email)
	if err == nil {
		if user.DeletedAt != nil {
			return nil, false, jobboard.ErrAccountDeleted
		}
		if user.BannedAt != nil {
			return nil, false, jobboard.ErrAccountBanned
		}
		return user, false, nil
	}

	if !goerrors.IsNotFound(err) {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up social user")
	}

	user, err = sa.users.Create(ctx, &jobboard.User{
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Email:        profile.Email,
		PasswordHash: jobboard.RandomPasswordHash(),
		Provider:     jobboard.ProviderGoogle,
		Role:         jobboard.RoleUser,
		Confirmed:    profile.EmailVerified,
		ProfilePic:   jobboard.Attachment{URL: profile.AvatarURL},
	})
	if err != nil {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryConflict, "could not provision social user")
	}

	return user, true, nil
}

package jobboard

import (
	"context"
	"reflect"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther glues the identity provider, the token service, and the user
// store into the three authentication flows: login, bearer
// authentication, and refresh.
type Auther struct {
	provider IdentityProvider
	users    Users
	tokens   TokenService
	logger   Logger
	sink     ActivitySink
	now      func() time.Time
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, users Users, tokens TokenService) *Auther {
	return &Auther{
		provider: provider,
		users:    users,
		tokens:   tokens,
		logger:   &defLogger{},
		sink:     noopActivitySink{},
		now:      time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.sink = normalizeActivitySink(sink)
	return s
}

func (s *Auther) WithClock(now func() time.Time) *Auther {
	if now != nil {
		s.now = now
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies credentials and returns a fresh token pair.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrIdentityNotFound.Error(),
		})
		return nil, ErrIdentityNotFound
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return pair, nil
}

// Authenticate resolves a bearer access token into the live user
// record. A token issued before the user's last credential change is
// rejected as stale; deleted and banned accounts are rejected even when
// the token itself still verifies.
func (s *Auther) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.tokens.Validate(accessToken, TokenAccess)
	if err != nil {
		return nil, err
	}

	return s.resolveUser(ctx, claims)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is echoed back, not rotated; revocation happens
// solely through the credential-change timestamp.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, TokenRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(NewIdentityFromUser(user))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
	}, nil
}

// IssueFor mints a token pair for an already verified user, used by
// signup and social login where no password exchange happens.
func (s *Auther) IssueFor(user *User) (*TokenPair, error) {
	return s.issuePair(NewIdentityFromUser(user))
}

func (s *Auther) resolveUser(ctx context.Context, claims AuthClaims) (*User, error) {
	uid, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	user, err := s.users.GetByIdentifier(ctx, uid.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for session")
	}

	if claims.IssuedAt().Before(user.ChangeCredentialAt) {
		return nil, ErrStaleCredential
	}

	if user.DeletedAt != nil {
		return nil, ErrAccountDeleted
	}

	if user.BannedAt != nil {
		return nil, ErrAccountBanned
	}

	return user, nil
}

func (s *Auther) issuePair(identity Identity) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(identity)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefreshToken(identity)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{ID: identity.ID(), Type: "user"}
}

func (s *Auther) emitAuthEvent(ctx context.Context, event ActivityEventType, actor ActorRef, subjectID string, metadata map[string]any) {
	if err := s.sink.Record(ctx, ActivityEvent{
		EventType:  event,
		Actor:      actor,
		SubjectID:  subjectID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}); err != nil {
		s.logger.Warn("activity sink error: %v", err)
	}
}

package jobboard

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenKind distinguishes the two token classes the service issues
type TokenKind string

const (
	// TokenAccess is the short-lived bearer credential (1h)
	TokenAccess TokenKind = "access"
	// TokenRefresh is the longer-lived exchange credential (7d)
	TokenRefresh TokenKind = "refresh"
)

// TokenService issues and validates signed tokens
type TokenService interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueRefreshToken(identity Identity) (string, error)
	Validate(token string, kind TokenKind) (AuthClaims, error)
}

// Authenticator resolves bearer tokens into live user records
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// TokenPair is what login and refresh hand back to clients
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IdentityProvider ensures we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// Config holds runtime options consumed across the module
type Config interface {
	GetSigningKey() string
	GetRefreshSigningKey() string
	GetTokenExpiration() time.Duration
	GetRefreshExpiration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetMobileEncryptionKey() []byte
	GetDefaultRegion() string
	GetDSN() string
	GetListenAddr() string
	GetSiteURL() string
	GetDebug() bool
}

// Mailer delivers notifications out of band. Implementations are
// external collaborators; the core only renders subject and HTML body.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// FileStorage holds uploaded assets (CVs, logos, profile pictures)
type FileStorage interface {
	Upload(ctx context.Context, name string, data []byte) (Attachment, error)
	Remove(ctx context.Context, id string) error
}

// Broadcaster pushes realtime events to connected clients, keyed by room
type Broadcaster interface {
	Emit(room, event string, payload any)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Emit(string, string, any) {}

// NoopBroadcaster is a Broadcaster that drops every event
func NoopBroadcaster() Broadcaster { return noopBroadcaster{} }

// NewDefaultLogger returns the stdout fallback logger used when no
// logger is configured.
func NewDefaultLogger() Logger { return defLogger{} }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] JOBBOARD "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] JOBBOARD "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] JOBBOARD "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] JOBBOARD "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

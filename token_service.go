package jobboard

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenServiceImpl signs HS256 access and refresh tokens with separate
// keys. Access tokens embed the user's role; refresh tokens only the id.
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}

	return &TokenServiceImpl{
		accessKey:  []byte(cfg.GetSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  cfg.GetTokenExpiration(),
		refreshTTL: cfg.GetRefreshExpiration(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock injects a custom clock (useful for tests)
func (ts *TokenServiceImpl) WithClock(clock func() time.Time) *TokenServiceImpl {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// IssueAccessToken mints the short-lived bearer token
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity) (string, error) {
	return ts.issue(identity, TokenAccess, identity.Role(), ts.accessTTL, ts.accessKey)
}

// IssueRefreshToken mints the exchange token. It carries no role claim:
// role is re-read from the store on every refresh.
func (ts *TokenServiceImpl) IssueRefreshToken(identity Identity) (string, error) {
	return ts.issue(identity, TokenRefresh, "", ts.refreshTTL, ts.refreshKey)
}

func (ts *TokenServiceImpl) issue(identity Identity, kind TokenKind, role string, ttl time.Duration, key []byte) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UID:       identity.ID(),
		UserRole:  role,
		TokenKind: string(kind),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses and validates a token string, returning structured
// claims. Expired tokens surface ErrTokenExpired; everything else that
// fails parsing or signature checks surfaces ErrTokenMalformed.
func (ts *TokenServiceImpl) Validate(tokenString string, kind TokenKind) (AuthClaims, error) {
	key := ts.accessKey
	if kind == TokenRefresh {
		key = ts.refreshKey
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token service encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode or validate claims")
		return nil, ErrUnableToDecodeSession
	}

	// an access token must never pass as a refresh token or vice versa
	if claims.Kind() != kind {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

var _ TokenService = (*TokenServiceImpl)(nil)

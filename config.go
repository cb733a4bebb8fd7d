package jobboard

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig reads runtime options from the environment. A .env file is
// loaded when present; real environment variables win over it.
type EnvConfig struct {
	signingKey        string
	refreshSigningKey string
	tokenExpiration   time.Duration
	refreshExpiration time.Duration
	issuer            string
	audience          []string
	mobileKey         []byte
	defaultRegion     string
	dsn               string
	listenAddr        string
	siteURL           string
	debug             bool
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig builds an EnvConfig from the process environment.
func LoadConfig() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		signingKey:        os.Getenv("JWT_SECRET"),
		refreshSigningKey: os.Getenv("REFRESH_SECRET"),
		tokenExpiration:   envDuration("TOKEN_EXPIRATION", time.Hour),
		refreshExpiration: envDuration("REFRESH_EXPIRATION", 7*24*time.Hour),
		issuer:            envOr("TOKEN_ISSUER", "jobhive"),
		defaultRegion:     envOr("DEFAULT_PHONE_REGION", "US"),
		dsn:               envOr("DATABASE_DSN", "file::memory:?cache=shared"),
		listenAddr:        envOr("LISTEN_ADDR", ":3000"),
		siteURL:           envOr("SITE_URL", "http://localhost:3000"),
		debug:             envBool("DEBUG"),
	}

	if aud := os.Getenv("TOKEN_AUDIENCE"); aud != "" {
		cfg.audience = strings.Split(aud, ",")
	}

	if cfg.signingKey == "" {
		return nil, goerrors.New("JWT_SECRET must be set", goerrors.CategoryValidation)
	}

	if cfg.refreshSigningKey == "" {
		return nil, goerrors.New("REFRESH_SECRET must be set", goerrors.CategoryValidation)
	}

	if keyHex := os.Getenv("MOBILE_ENCRYPTION_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "MOBILE_ENCRYPTION_KEY must be hex encoded")
		}
		cfg.mobileKey = key
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string              { return c.signingKey }
func (c *EnvConfig) GetRefreshSigningKey() string       { return c.refreshSigningKey }
func (c *EnvConfig) GetTokenExpiration() time.Duration  { return c.tokenExpiration }
func (c *EnvConfig) GetRefreshExpiration() time.Duration { return c.refreshExpiration }
func (c *EnvConfig) GetIssuer() string                  { return c.issuer }
func (c *EnvConfig) GetAudience() []string              { return c.audience }
func (c *EnvConfig) GetMobileEncryptionKey() []byte     { return c.mobileKey }
func (c *EnvConfig) GetDefaultRegion() string           { return c.defaultRegion }
func (c *EnvConfig) GetDSN() string                     { return c.dsn }
func (c *EnvConfig) GetListenAddr() string              { return c.listenAddr }
func (c *EnvConfig) GetSiteURL() string                 { return c.siteURL }
func (c *EnvConfig) GetDebug() bool                     { return c.debug }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

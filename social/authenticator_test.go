package social_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	jobboard "github.com/jobhive/jobhive"
	"github.com/jobhive/jobhive/social"
)

// fakeProvider hands back canned responses so the flow can run without
// a network.
type fakeProvider struct {
	name    string
	profile *social.Profile
	exchErr error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*social.Token, error) {
	if p.exchErr != nil {
		return nil, p.exchErr
	}
	return &social.Token{AccessToken: "at-" + code, TokenType: "Bearer"}, nil
}

func (p *fakeProvider) UserInfo(ctx context.Context, token *social.Token) (*social.Profile, error) {
	return p.profile, nil
}

var socialDBSeq int

func setupRepo(t *testing.T) jobboard.RepositoryManager {
	t.Helper()

	socialDBSeq++
	dsn := fmt.Sprintf("file:socialdb%d?mode=memory&cache=shared", socialDBSeq)

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	// Keep one connection pinned or the in-memory database vanishes.
	sqldb.SetMaxIdleConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	files, err := fs.Glob(jobboard.GetMigrationsFS(), "data/sql/migrations/*.up.sql")
	require.NoError(t, err)

	for _, name := range files {
		raw, err := jobboard.GetMigrationsFS().ReadFile(name)
		require.NoError(t, err)

		for _, stmt := range strings.Split(string(raw), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}
	}

	return jobboard.NewRepositoryManager(db)
}

type trackerUsers struct {
	users jobboard.Users
}

func (a trackerUsers) GetByIdentifier(ctx context.Context, identifier string) (*jobboard.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a trackerUsers) TrackAttemptedLogin(ctx context.Context, user *jobboard.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a trackerUsers) TrackSuccessfulLogin(ctx context.Context, user *jobboard.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func newSocialAuth(t *testing.T, repo jobboard.RepositoryManager, provider social.Provider) *social.Authenticator {
	t.Helper()
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("REFRESH_SECRET", "refresh-secret")

	cfg, err := jobboard.LoadConfig()
	require.NoError(t, err)

	tokens := jobboard.NewTokenService(cfg, nil)
	identity := jobboard.NewUserProvider(trackerUsers{users: repo.Users()})
	auther := jobboard.NewAuthenticator(identity, repo.Users(), tokens)

	return social.NewAuthenticator(repo.Users(), auther, social.Config{
		StateSigningKey:      []byte("state-key"),
		RequireEmailVerified: true,
	}, social.WithProvider(provider))
}

func verifiedProfile(email string) *social.Profile {
	return &social.Profile{
		ProviderUserID: uuid.NewString(),
		Provider:       "google",
		Email:          email,
		EmailVerified:  true,
		FirstName:      "Jane",
		LastName:       "Doe",
		AvatarURL:      "https://lh3.example.com/photo.jpg",
	}
}

func TestBeginURL(t *testing.T) {
	repo := setupRepo(t)
	sa := newSocialAuth(t, repo, &fakeProvider{name: "google", profile: verifiedProfile("jane@example.com")})

	t.Run("known provider embeds a state", func(t *testing.T) {
		url, err := sa.BeginURL("google", "/jobs")
		require.NoError(t, err)
		assert.Contains(t, url, "https://provider.example.com/auth?state=")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := sa.BeginURL("github", "")
		assert.ErrorIs(t, err, social.ErrUnknownProvider)
	})
}

func TestHandleCallbackProvisionsNewUser(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	sa := newSocialAuth(t, repo, &fakeProvider{name: "google", profile: verifiedProfile("jane@example.com")})

	state, err := social.NewHMACStateManager([]byte("state-key"), 10*time.Minute).Issue("/jobs")
	require.NoError(t, err)

	result, err := sa.HandleCallback(ctx, "google", "code-1", state)
	require.NoError(t, err)

	assert.True(t, result.NewUser)
	assert.Equal(t, "/jobs", result.Redirect)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.Equal(t, jobboard.ProviderGoogle, result.User.Provider)
	assert.True(t, result.User.Confirmed)
	assert.NotEmpty(t, result.User.PasswordHash)

	t.Run("second login reuses the account", func(t *testing.T) {
		state, err := social.NewHMACStateManager([]byte("state-key"), 10*time.Minute).Issue("")
		require.NoError(t, err)

		again, err := sa.HandleCallback(ctx, "google", "code-2", state)
		require.NoError(t, err)
		assert.False(t, again.NewUser)
		assert.Equal(t, result.User.ID, again.User.ID)
	})
}

func TestHandleCallbackRejections(t *testing.T) {
	ctx := context.Background()

	issueState := func(t *testing.T) string {
		state, err := social.NewHMACStateManager([]byte("state-key"), 10*time.Minute).Issue("")
		require.NoError(t, err)
		return state
	}

	t.Run("unverified email", func(t *testing.T) {
		repo := setupRepo(t)
		profile := verifiedProfile("shady@example.com")
		profile.EmailVerified = false
		sa := newSocialAuth(t, repo, &fakeProvider{name: "google", profile: profile})

		_, err := sa.HandleCallback(ctx, "google", "code", issueState(t))
		assert.ErrorIs(t, err, social.ErrEmailNotVerified)
	})

	t.Run("forged state", func(t *testing.T) {
		repo := setupRepo(t)
		sa := newSocialAuth(t, repo, &fakeProvider{name: "google", profile: verifiedProfile("jane@example.com")})

		_, err := sa.HandleCallback(ctx, "google", "code", "forged.state")
		assert.ErrorIs(t, err, social.ErrInvalidState)
	})

	t.Run("failed exchange", func(t *testing.T) {
		repo := setupRepo(t)
		sa := newSocialAuth(t, repo, &fakeProvider{
			name:    "google",
			exchErr: errors.New("invalid_grant"),
		})

		_, err := sa.HandleCallback(ctx, "google", "expired", issueState(t))
		assert.Error(t, err)
	})

	t.Run("banned local account", func(t *testing.T) {
		repo := setupRepo(t)
		sa := newSocialAuth(t, repo, &fakeProvider{name: "google", profile: verifiedProfile("banned@example.com")})

		now := time.Now()
		_, err := repo.Users().Create(ctx, &jobboard.User{
			FirstName:    "Banned",
			LastName:     "User",
			Email:        "banned@example.com",
			PasswordHash: jobboard.RandomPasswordHash(),
			BannedAt:     &now,
		})
		require.NoError(t, err)

		_, err = sa.HandleCallback(ctx, "google", "code", issueState(t))
		assert.ErrorIs(t, err, jobboard.ErrAccountBanned)
	})
}

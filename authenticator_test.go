package jobboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	jobboard "github.com/jobhive/jobhive"
)

// trackerUsers narrows the Users repository to the UserTracker surface
// the provider consumes.
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

func newTestAuther(repo jobboard.RepositoryManager, clock func() time.Time) *jobboard.Auther {
	tokens := jobboard.NewTokenService(newTestConfig(), nil)
	if clock != nil {
		tokens.WithClock(clock)
	}
	provider := jobboard.NewUserProvider(trackerUsers{users: repo.Users()})
	return jobboard.NewAuthenticator(provider, repo.Users(), tokens)
}

func TestAutherLogin(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	auther := newTestAuther(repo, nil)

	user := seedUser(t, repo, jobboard.RoleUser)

	t.Run("valid credentials yield a pair", func(t *testing.T) {
		pair, err := auther.Login(ctx, user.Email, "password-123")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := auther.Login(ctx, user.Email, "not-the-password")
		assert.ErrorIs(t, err, jobboard.ErrMismatchedHashAndPassword)
	})

	t.Run("unknown identifier looks like a bad password", func(t *testing.T) {
		_, err := auther.Login(ctx, "nobody@example.com", "password-123")
		assert.ErrorIs(t, err, jobboard.ErrMismatchedHashAndPassword)
	})
}

func TestAutherAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	auther := newTestAuther(repo, nil)

	user := seedUser(t, repo, jobboard.RoleUser)

	pair, err := auther.Login(ctx, user.Email, "password-123")
	require.NoError(t, err)

	t.Run("fresh token resolves the user", func(t *testing.T) {
		got, err := auther.Authenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := auther.Authenticate(ctx, "not-a-token")
		assert.Error(t, err)
	})

	t.Run("refresh token cannot pass as access", func(t *testing.T) {
		_, err := auther.Authenticate(ctx, pair.RefreshToken)
		assert.Error(t, err)
	})

	t.Run("banned account is rejected despite a good token", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.Users().SetBannedTx(ctx, tx, user.ID, &now)
		}))

		_, err := auther.Authenticate(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, jobboard.ErrAccountBanned)
	})
}

func TestAutherCredentialChangeRevocation(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	// Issue tokens a minute in the past so their iat sits strictly
	// before any credential change made during the test.
	past := time.Now().Add(-time.Minute)
	auther := newTestAuther(repo, func() time.Time { return past })

	hash, err := jobboard.HashPassword("password-123")
	require.NoError(t, err)

	user, err := repo.Users().Create(ctx, &jobboard.User{
		FirstName:          "Early",
		LastName:           "Bird",
		Email:              uuid.NewString()[:8] + "@example.com",
		PasswordHash:       hash,
		Confirmed:          true,
		ChangeCredentialAt: time.Now().Add(-2 * time.Minute).Truncate(time.Second),
	})
	require.NoError(t, err)

	pair, err := auther.Login(ctx, user.Email, "password-123")
	require.NoError(t, err)

	got, err := auther.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	newHash, err := jobboard.HashPassword("rotated-456")
	require.NoError(t, err)
	require.NoError(t, repo.Users().UpdatePassword(ctx, user.ID, newHash))

	t.Run("old access token goes stale", func(t *testing.T) {
		_, err := auther.Authenticate(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, jobboard.ErrStaleCredential)
	})

	t.Run("old refresh token goes stale", func(t *testing.T) {
		_, err := auther.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, jobboard.ErrStaleCredential)
	})

	t.Run("a fresh login works with the new password", func(t *testing.T) {
		fresh := newTestAuther(repo, nil)
		pair, err := fresh.Login(ctx, user.Email, "rotated-456")
		require.NoError(t, err)

		_, err = fresh.Authenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
	})
}

func TestAutherRefresh(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	auther := newTestAuther(repo, nil)

	user := seedUser(t, repo, jobboard.RoleUser)

	pair, err := auther.Login(ctx, user.Email, "password-123")
	require.NoError(t, err)

	refreshed, err := auther.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// Refresh tokens are not rotated; revocation rides on the
	// credential timestamp alone.
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)

	got, err := auther.Authenticate(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	t.Run("access token cannot pass as refresh", func(t *testing.T) {
		_, err := auther.Refresh(ctx, pair.AccessToken)
		assert.Error(t, err)
	})
}

func TestUserProviderThrottle(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	provider := jobboard.NewUserProvider(trackerUsers{users: repo.Users()})

	user := seedUser(t, repo, jobboard.RoleUser)

	for i := 0; i <= jobboard.MaxLoginAttempts; i++ {
		_, err := provider.VerifyIdentity(ctx, user.Email, "wrong")
		require.ErrorIs(t, err, jobboard.ErrMismatchedHashAndPassword)
	}

	// The counter is past the cap; even the right password cools off.
	_, err := provider.VerifyIdentity(ctx, user.Email, "password-123")
	assert.ErrorIs(t, err, jobboard.ErrTooManyLoginAttempts)
}

package jobboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobboard "github.com/jobhive/jobhive"
)

func TestOTPIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	engine := jobboard.NewOTPEngine(repo)

	user := seedUser(t, repo, jobboard.RoleUser)

	code, err := engine.Issue(ctx, user, jobboard.PurposeForgetPassword)
	require.NoError(t, err)
	require.Len(t, code, 6)

	t.Run("wrong code is rejected", func(t *testing.T) {
		err := engine.Verify(ctx, user, jobboard.PurposeForgetPassword, "000000")
		assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
	})

	t.Run("empty candidate is rejected", func(t *testing.T) {
		err := engine.Verify(ctx, user, jobboard.PurposeForgetPassword, "")
		assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
	})

	t.Run("purposes are isolated", func(t *testing.T) {
		err := engine.Verify(ctx, user, jobboard.PurposeConfirmEmail, code)
		assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
	})

	t.Run("correct code verifies once", func(t *testing.T) {
		require.NoError(t, engine.Verify(ctx, user, jobboard.PurposeForgetPassword, code))

		err := engine.Verify(ctx, user, jobboard.PurposeForgetPassword, code)
		assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
	})
}

func TestOTPVerifyConsumesSiblings(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	engine := jobboard.NewOTPEngine(repo)

	user := seedUser(t, repo, jobboard.RoleUser)

	first, err := engine.Issue(ctx, user, jobboard.PurposeForgetPassword)
	require.NoError(t, err)
	second, err := engine.Issue(ctx, user, jobboard.PurposeForgetPassword)
	require.NoError(t, err)

	// Reissue does not invalidate the older code.
	require.NoError(t, engine.Verify(ctx, user, jobboard.PurposeForgetPassword, first))

	// But redeeming one consumes every outstanding code of the purpose.
	err = engine.Verify(ctx, user, jobboard.PurposeForgetPassword, second)
	assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
}

func TestOTPExpiry(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	user := seedUser(t, repo, jobboard.RoleUser)

	issuedAt := time.Now().Add(-time.Hour)
	engine := jobboard.NewOTPEngine(repo).WithClock(func() time.Time { return issuedAt })

	code, err := engine.Issue(ctx, user, jobboard.PurposeForgetPassword)
	require.NoError(t, err)

	// Move the clock past the TTL; the stored code is now stale.
	engine.WithClock(time.Now)

	err = engine.Verify(ctx, user, jobboard.PurposeForgetPassword, code)
	assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)

	t.Run("purge removes the stale rows", func(t *testing.T) {
		fresh, err := engine.Issue(ctx, user, jobboard.PurposeConfirmEmail)
		require.NoError(t, err)

		removed, err := engine.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		require.NoError(t, engine.Verify(ctx, user, jobboard.PurposeConfirmEmail, fresh))
	})
}

func TestVerifyOTPHandler(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	engine := jobboard.NewOTPEngine(repo)

	user := seedUser(t, repo, jobboard.RoleUser)

	code, err := engine.Issue(ctx, user, jobboard.PurposeForgetPassword)
	require.NoError(t, err)

	handler := jobboard.NewVerifyOTPHandler(repo, engine).
		WithLogger(jobboard.NewDefaultLogger())

	t.Run("unknown purpose is rejected", func(t *testing.T) {
		err := handler.Execute(ctx, jobboard.VerifyOTPMessage{
			Email:   user.Email,
			Code:    code,
			Purpose: "resetEverything",
		})
		assert.Error(t, err)
	})

	t.Run("unknown email reads as an invalid code", func(t *testing.T) {
		err := handler.Execute(ctx, jobboard.VerifyOTPMessage{
			Email:   "nobody@example.com",
			Code:    code,
			Purpose: jobboard.PurposeForgetPassword,
		})
		assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
	})

	t.Run("valid code redeems", func(t *testing.T) {
		err := handler.Execute(ctx, jobboard.VerifyOTPMessage{
			Email:   user.Email,
			Code:    code,
			Purpose: jobboard.PurposeForgetPassword,
		})
		require.NoError(t, err)
	})
}

func TestOTPConfirmEmailFlipsConfirmed(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	engine := jobboard.NewOTPEngine(repo)

	hash, err := jobboard.HashPassword("password-123")
	require.NoError(t, err)

	user, err := repo.Users().Create(ctx, &jobboard.User{
		FirstName:    "Fresh",
		LastName:     "Signup",
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)
	require.False(t, user.Confirmed)

	code, err := engine.Issue(ctx, user, jobboard.PurposeConfirmEmail)
	require.NoError(t, err)

	require.NoError(t, engine.Verify(ctx, user, jobboard.PurposeConfirmEmail, code))

	got, err := repo.Users().GetByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}

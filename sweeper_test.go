package jobboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobboard "github.com/jobhive/jobhive"
)

func TestSweepDeletedUsers(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	otp := jobboard.NewOTPEngine(repo)
	lifecycle := jobboard.NewLifecycleManager(repo)

	departed := seedUser(t, repo, jobboard.RoleUser)
	active := seedUser(t, repo, jobboard.RoleUser)

	require.NoError(t, lifecycle.SoftDeleteUser(ctx, departed, departed.ID))

	// Inside the grace window nothing is touched.
	sweeper := jobboard.NewSweeper(repo, otp, lifecycle).
		WithClock(func() time.Time { return time.Now().Add(jobboard.RetentionPeriod / 2) })
	sweeper.SweepDeletedUsers(ctx)

	_, err := repo.Users().GetByID(ctx, departed.ID.String())
	assert.NoError(t, err)

	// Past the window the account is physically removed.
	sweeper = jobboard.NewSweeper(repo, otp, lifecycle).
		WithClock(func() time.Time { return time.Now().Add(jobboard.RetentionPeriod + time.Hour) })
	sweeper.SweepDeletedUsers(ctx)

	_, err = repo.Users().GetByID(ctx, departed.ID.String())
	assert.Error(t, err)

	// Accounts that were never deleted are left alone.
	_, err = repo.Users().GetByID(ctx, active.ID.String())
	assert.NoError(t, err)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	repo := setupTestRepo(t)
	sweeper := jobboard.NewSweeper(repo, jobboard.NewOTPEngine(repo), jobboard.NewLifecycleManager(repo))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

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

func TestSoftDeleteCompanyCascade(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	hired := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)
	otherJob := seedJob(t, repo, company, owner)

	pending := seedApplication(t, repo, job, applicant, jobboard.StatusPending)
	accepted := seedApplication(t, repo, otherJob, hired, jobboard.StatusAccepted)

	require.NoError(t, lifecycle.SoftDeleteCompany(ctx, owner, company.ID))

	t.Run("company is soft deleted", func(t *testing.T) {
		got, err := repo.Companies().GetWithHRs(ctx, company.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.DeletedAt)
	})

	t.Run("live jobs are swept", func(t *testing.T) {
		for _, id := range []string{job.ID.String(), otherJob.ID.String()} {
			got, err := repo.Jobs().GetByID(ctx, id)
			require.NoError(t, err)
			assert.NotNil(t, got.DeletedAt)
		}
	})

	t.Run("pending applications are rejected", func(t *testing.T) {
		got, err := repo.Applications().GetByID(ctx, pending.ID.String())
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusRejected, got.Status)
	})

	t.Run("terminal outcomes survive the sweep", func(t *testing.T) {
		got, err := repo.Applications().GetByID(ctx, accepted.ID.String())
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusAccepted, got.Status)
	})

	t.Run("outsider cannot delete a company", func(t *testing.T) {
		other := seedUser(t, repo, jobboard.RoleUser)
		otherCompany := seedCompany(t, repo, other)

		outsider := seedUser(t, repo, jobboard.RoleUser)
		err := lifecycle.SoftDeleteCompany(ctx, outsider, otherCompany.ID)
		assert.ErrorIs(t, err, jobboard.ErrForbidden)
	})
}

func TestBanCompanyIsNotACascade(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	admin := seedUser(t, repo, jobboard.RoleAdmin)
	owner := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)
	application := seedApplication(t, repo, job, applicant, jobboard.StatusPending)

	require.NoError(t, lifecycle.BanCompany(ctx, admin, company.ID))

	t.Run("only the ban timestamp changes", func(t *testing.T) {
		gotJob, err := repo.Jobs().GetByID(ctx, job.ID.String())
		require.NoError(t, err)
		assert.Nil(t, gotJob.DeletedAt)
		assert.False(t, gotJob.Closed)

		gotApp, err := repo.Applications().GetByID(ctx, application.ID.String())
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusPending, gotApp.Status)
	})

	t.Run("banned company blocks new applications", func(t *testing.T) {
		second := seedUser(t, repo, jobboard.RoleUser)
		_, err := lifecycle.SubmitApplication(ctx, second, job.ID, jobboard.Attachment{})
		assert.ErrorIs(t, err, jobboard.ErrCompanyInactive)
	})

	t.Run("double ban is rejected", func(t *testing.T) {
		err := lifecycle.BanCompany(ctx, admin, company.ID)
		assert.ErrorIs(t, err, jobboard.ErrAlreadyBanned)
	})

	t.Run("unban restores applications without resurrecting anything", func(t *testing.T) {
		require.NoError(t, lifecycle.UnbanCompany(ctx, admin, company.ID))

		second := seedUser(t, repo, jobboard.RoleUser)
		created, err := lifecycle.SubmitApplication(ctx, second, job.ID, jobboard.Attachment{})
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusPending, created.Status)

		err = lifecycle.UnbanCompany(ctx, admin, company.ID)
		assert.ErrorIs(t, err, jobboard.ErrNotBanned)
	})

	t.Run("owner cannot ban", func(t *testing.T) {
		err := lifecycle.BanCompany(ctx, owner, company.ID)
		assert.ErrorIs(t, err, jobboard.ErrForbidden)
	})
}

func TestSoftDeleteUserCascade(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)
	otp := jobboard.NewOTPEngine(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	departing := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner, departing)
	ownCompany := seedCompany(t, repo, departing)
	job := seedJob(t, repo, company, owner)

	accepted := seedApplication(t, repo, job, departing, jobboard.StatusAccepted)

	_, err := otp.Issue(ctx, departing, jobboard.PurposeConfirmEmail)
	require.NoError(t, err)

	require.NoError(t, lifecycle.SoftDeleteUser(ctx, departing, departing.ID))

	t.Run("account is soft deleted", func(t *testing.T) {
		got, err := repo.Users().GetByID(ctx, departing.ID.String())
		require.NoError(t, err)
		assert.NotNil(t, got.DeletedAt)
	})

	t.Run("HR membership is removed everywhere", func(t *testing.T) {
		got, err := repo.Companies().GetWithHRs(ctx, company.ID)
		require.NoError(t, err)
		assert.False(t, got.IsManagedBy(departing.ID))
		assert.True(t, got.IsManagedBy(owner.ID))
	})

	t.Run("owned companies are orphaned, not deleted", func(t *testing.T) {
		got, err := repo.Companies().GetWithHRs(ctx, ownCompany.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CreatedBy)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("all applications are rejected, terminal included", func(t *testing.T) {
		got, err := repo.Applications().GetByID(ctx, accepted.ID.String())
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusRejected, got.Status)
	})

	t.Run("outstanding codes are dropped", func(t *testing.T) {
		err := otp.Verify(ctx, departing, jobboard.PurposeConfirmEmail, "000000")
		assert.ErrorIs(t, err, jobboard.ErrInvalidOrExpiredOTP)
	})

	t.Run("users may only delete themselves", func(t *testing.T) {
		other := seedUser(t, repo, jobboard.RoleUser)
		err := lifecycle.SoftDeleteUser(ctx, other, owner.ID)
		assert.ErrorIs(t, err, jobboard.ErrForbidden)
	})
}

func TestSoftDeleteJob(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	hired := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)

	pending := seedApplication(t, repo, job, applicant, jobboard.StatusPending)
	accepted := seedApplication(t, repo, job, hired, jobboard.StatusAccepted)

	require.NoError(t, lifecycle.SoftDeleteJob(ctx, owner, job.ID))

	got, err := repo.Jobs().GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt)

	gotPending, err := repo.Applications().GetByID(ctx, pending.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobboard.StatusRejected, gotPending.Status)

	gotAccepted, err := repo.Applications().GetByID(ctx, accepted.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobboard.StatusAccepted, gotAccepted.Status)

	t.Run("deleted job refuses new applications", func(t *testing.T) {
		second := seedUser(t, repo, jobboard.RoleUser)
		_, err := lifecycle.SubmitApplication(ctx, second, job.ID, jobboard.Attachment{})
		assert.ErrorIs(t, err, jobboard.ErrJobNotAccepting)
	})
}

func TestCloseAndReopenJob(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)

	require.NoError(t, lifecycle.CloseJob(ctx, owner, job.ID))

	_, err := lifecycle.SubmitApplication(ctx, applicant, job.ID, jobboard.Attachment{})
	assert.ErrorIs(t, err, jobboard.ErrJobNotAccepting)

	require.NoError(t, lifecycle.ReopenJob(ctx, owner, job.ID))

	created, err := lifecycle.SubmitApplication(ctx, applicant, job.ID, jobboard.Attachment{})
	require.NoError(t, err)
	assert.Equal(t, jobboard.StatusPending, created.Status)
}

func TestSubmitApplication(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)

	t.Run("happy path", func(t *testing.T) {
		created, err := lifecycle.SubmitApplication(ctx, applicant, job.ID, jobboard.Attachment{URL: "https://cdn.example.com/cv.pdf"})
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusPending, created.Status)
		assert.Equal(t, applicant.ID, created.UserID)
	})

	t.Run("second application for the same job conflicts", func(t *testing.T) {
		_, err := lifecycle.SubmitApplication(ctx, applicant, job.ID, jobboard.Attachment{})
		assert.ErrorIs(t, err, jobboard.ErrDuplicateApplication)
	})

	t.Run("inactive accounts cannot apply", func(t *testing.T) {
		banned := seedUser(t, repo, jobboard.RoleUser)
		now := time.Now()
		banned.BannedAt = &now

		_, err := lifecycle.SubmitApplication(ctx, banned, job.ID, jobboard.Attachment{})
		assert.ErrorIs(t, err, jobboard.ErrForbidden)
	})
}

func TestUpdateApplicationStatus(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	hr := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner, hr)
	job := seedJob(t, repo, company, owner)
	application := seedApplication(t, repo, job, applicant, jobboard.StatusPending)

	t.Run("HR moves the status", func(t *testing.T) {
		require.NoError(t, lifecycle.UpdateApplicationStatus(ctx, hr, application.ID, jobboard.StatusViewed))

		got, err := repo.Applications().GetByID(ctx, application.ID.String())
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusViewed, got.Status)
	})

	t.Run("applicant cannot move their own status", func(t *testing.T) {
		err := lifecycle.UpdateApplicationStatus(ctx, applicant, application.ID, jobboard.StatusAccepted)
		assert.ErrorIs(t, err, jobboard.ErrForbidden)
	})

	t.Run("authorized update may leave a terminal state", func(t *testing.T) {
		require.NoError(t, lifecycle.UpdateApplicationStatus(ctx, owner, application.ID, jobboard.StatusRejected))
		require.NoError(t, lifecycle.UpdateApplicationStatus(ctx, owner, application.ID, jobboard.StatusInConsideration))

		got, err := repo.Applications().GetByID(ctx, application.ID.String())
		require.NoError(t, err)
		assert.Equal(t, jobboard.StatusInConsideration, got.Status)
	})
}

func TestBanUserLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	admin := seedUser(t, repo, jobboard.RoleAdmin)
	target := seedUser(t, repo, jobboard.RoleUser)

	require.NoError(t, lifecycle.BanUser(ctx, admin, target.ID))

	got, err := repo.Users().GetByID(ctx, target.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, got.BannedAt)

	t.Run("double ban rejected", func(t *testing.T) {
		assert.ErrorIs(t, lifecycle.BanUser(ctx, admin, target.ID), jobboard.ErrAlreadyBanned)
	})

	t.Run("admins cannot ban themselves", func(t *testing.T) {
		assert.ErrorIs(t, lifecycle.BanUser(ctx, admin, admin.ID), jobboard.ErrForbidden)
	})

	t.Run("unban clears the timestamp", func(t *testing.T) {
		require.NoError(t, lifecycle.UnbanUser(ctx, admin, target.ID))

		got, err := repo.Users().GetByID(ctx, target.ID.String())
		require.NoError(t, err)
		assert.Nil(t, got.BannedAt)

		assert.ErrorIs(t, lifecycle.UnbanUser(ctx, admin, target.ID), jobboard.ErrNotBanned)
	})
}

func TestApproveCompany(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	admin := seedUser(t, repo, jobboard.RoleAdmin)
	owner := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)

	t.Run("admin approves a pending company", func(t *testing.T) {
		pending, err := repo.Companies().Create(ctx, &jobboard.Company{
			ID:        uuid.New(),
			Name:      "Pending Labs " + uuid.NewString()[:8],
			Email:     uuid.NewString()[:8] + "@pending.example.com",
			CreatedBy: &owner.ID,
		})
		require.NoError(t, err)

		require.NoError(t, lifecycle.ApproveCompany(ctx, admin, pending.ID))

		got, err := repo.Companies().GetWithHRs(ctx, pending.ID)
		require.NoError(t, err)
		assert.True(t, got.Approved)
	})

	t.Run("already approved companies are rejected", func(t *testing.T) {
		assert.ErrorIs(t, lifecycle.ApproveCompany(ctx, admin, company.ID), jobboard.ErrAlreadyApproved)
	})

	t.Run("owner cannot approve their own company", func(t *testing.T) {
		assert.ErrorIs(t, lifecycle.ApproveCompany(ctx, owner, company.ID), jobboard.ErrForbidden)
	})
}

func TestHardDeleteUser(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	lifecycle := jobboard.NewLifecycleManager(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	departing := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)
	seedApplication(t, repo, job, departing, jobboard.StatusPending)

	require.NoError(t, lifecycle.SoftDeleteUser(ctx, departing, departing.ID))
	require.NoError(t, lifecycle.HardDeleteUser(ctx, departing.ID))

	_, err := repo.Users().GetByID(ctx, departing.ID.String())
	assert.Error(t, err)

	apps, err := repo.Applications().ListByUser(ctx, departing.ID)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

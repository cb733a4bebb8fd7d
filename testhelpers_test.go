package jobboard_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	jobboard "github.com/jobhive/jobhive"
)

var testDBSeq int

// setupTestRepo opens an isolated in-memory database, applies the
// schema, and returns the repository manager.
func setupTestRepo(t *testing.T) jobboard.RepositoryManager {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq)

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	// in-memory sqlite drops the database when the last connection
	// closes; pin one open for the test's lifetime
	db.SetMaxIdleConns(1)

	applySchema(t, db)

	return jobboard.NewRepositoryManager(db)
}

func applySchema(t *testing.T, db *bun.DB) {
	t.Helper()

	entries, err := fs.Glob(jobboard.GetMigrationsFS(), "data/sql/migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, name := range entries {
		raw, err := fs.ReadFile(jobboard.GetMigrationsFS(), name)
		require.NoError(t, err)

		for _, stmt := range strings.Split(string(raw), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			_, err := db.Exec(stmt)
			require.NoError(t, err, "statement: %s", stmt)
		}
	}
}

func seedUser(t *testing.T, repo jobboard.RepositoryManager, role string) *jobboard.User {
	t.Helper()

	hash, err := jobboard.HashPassword("password-123")
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &jobboard.User{
		FirstName:    "Test",
		LastName:     role,
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		PasswordHash: hash,
		Role:         role,
		Confirmed:    true,
	})
	require.NoError(t, err)
	return user
}

func seedCompany(t *testing.T, repo jobboard.RepositoryManager, owner *jobboard.User, hrs ...*jobboard.User) *jobboard.Company {
	t.Helper()
	ctx := context.Background()

	company := &jobboard.Company{
		ID:        uuid.New(),
		Name:      "company-" + uuid.NewString()[:8],
		Email:     uuid.NewString()[:8] + "@corp.example.com",
		CreatedBy: &owner.ID,
		Approved:  true,
	}

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := repo.Companies().CreateTx(ctx, tx, company)
		if err != nil {
			return err
		}
		company = created

		if err := repo.Companies().AddHRTx(ctx, tx, company.ID, owner.ID); err != nil {
			return err
		}
		for _, hr := range hrs {
			if err := repo.Companies().AddHRTx(ctx, tx, company.ID, hr.ID); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	loaded, err := repo.Companies().GetWithHRs(ctx, company.ID)
	require.NoError(t, err)
	return loaded
}

func seedJob(t *testing.T, repo jobboard.RepositoryManager, company *jobboard.Company, owner *jobboard.User) *jobboard.Job {
	t.Helper()

	job, err := repo.Jobs().Create(context.Background(), &jobboard.Job{
		ID:          uuid.New(),
		CompanyID:   company.ID,
		Title:       "Backend Engineer",
		Location:    jobboard.LocationRemote,
		WorkingTime: jobboard.WorkingFullTime,
		Seniority:   jobboard.SenioritySenior,
		AddedBy:     &owner.ID,
	})
	require.NoError(t, err)
	return job
}

func seedApplication(t *testing.T, repo jobboard.RepositoryManager, job *jobboard.Job, applicant *jobboard.User, status jobboard.ApplicationStatus) *jobboard.Application {
	t.Helper()
	ctx := context.Background()

	var application *jobboard.Application
	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := repo.Applications().CreateTx(ctx, tx, &jobboard.Application{
			JobID:  job.ID,
			UserID: applicant.ID,
		})
		if err != nil {
			return err
		}
		application = created

		if status != jobboard.StatusPending {
			if err := repo.Applications().SetStatusTx(ctx, tx, created.ID, status); err != nil {
				return err
			}
			application.Status = status
		}
		return nil
	})
	require.NoError(t, err)
	return application
}

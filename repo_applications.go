package jobboard

import (
	"context"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Applications interface {
	repository.Repository[*Application]

	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Application, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Application) (*Application, error)

	ExistsFor(ctx context.Context, jobID, userID uuid.UUID) (bool, error)
	ExistsForCompany(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Application, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Application, error)

	SetStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ApplicationStatus) error

	// RejectPendingByJobIDsTx sweeps applications left open on jobs that
	// just went away. Terminal rows keep their outcome.
	RejectPendingByJobIDsTx(ctx context.Context, tx bun.IDB, jobIDs []uuid.UUID) error

	// RejectByUserTx rejects every application of a departing user,
	// terminal rows included.
	RejectByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type applications struct {
	repository.Repository[*Application]
	db *bun.DB
}

var _ Applications = (*applications)(nil)

func NewApplicationsRepository(db *bun.DB) Applications {
	repo := repository.NewRepository[*Application](db, repository.ModelHandlers[*Application]{
		NewRecord: func() *Application { return &Application{} },
		GetID: func(a *Application) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Application, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return ""
		},
	})

	return &applications{
		Repository: repo,
		db:         db,
	}
}

func (a *applications) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Application, error) {
	record := &Application{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound("application", map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *applications) CreateTx(ctx context.Context, tx bun.IDB, record *Application) (*Application, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = StatusPending
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateApplication
		}
		return nil, err
	}

	return created, nil
}

func (a *applications) ExistsFor(ctx context.Context, jobID, userID uuid.UUID) (bool, error) {
	return a.db.NewSelect().Model((*Application)(nil)).
		Where("?TableAlias.job_id = ?", jobID).
		Where("?TableAlias.user_id = ?", userID).
		Exists(ctx)
}

// ExistsForCompany reports whether the user ever applied to any of the
// company's jobs, deleted jobs included. This gates chat initiation.
func (a *applications) ExistsForCompany(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	return a.db.NewSelect().Model((*Application)(nil)).
		Join(`JOIN jobs AS job ON job.id = ?TableAlias.job_id`).
		Where("job.company_id = ?", companyID).
		Where("?TableAlias.user_id = ?", userID).
		Exists(ctx)
}

func (a *applications) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Application, error) {
	var records []*Application
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.job_id = ?", jobID).
		Order("created_at ASC").
		Scan(ctx)

	return records, err
}

func (a *applications) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Application, error) {
	var records []*Application
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)

	return records, err
}

func (a *applications) SetStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ApplicationStatus) error {
	_, err := tx.NewUpdate().Model((*Application)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *applications) RejectPendingByJobIDsTx(ctx context.Context, tx bun.IDB, jobIDs []uuid.UUID) error {
	if len(jobIDs) == 0 {
		return nil
	}

	_, err := tx.NewUpdate().Model((*Application)(nil)).
		Set("status = ?", StatusRejected).
		Set("updated_at = ?", time.Now()).
		Where("job_id IN (?)", bun.In(jobIDs)).
		Where("status NOT IN (?)", bun.In([]ApplicationStatus{StatusAccepted, StatusRejected})).
		Exec(ctx)

	return err
}

func (a *applications) RejectByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewUpdate().Model((*Application)(nil)).
		Set("status = ?", StatusRejected).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

func (a *applications) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().Model((*Application)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

package jobboard

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// JobFilter narrows a job search. Zero-valued fields are ignored.
type JobFilter struct {
	CompanyID   uuid.UUID
	CompanyName string
	Title       string
	Location    JobLocation
	WorkingTime WorkingTime
	Seniority   SeniorityLevel
	Skill       string
	Limit       int
	Offset      int
}

type Jobs interface {
	repository.Repository[*Job]

	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Job, error)
	Search(ctx context.Context, filter JobFilter) ([]*Job, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*Job, error)
	ListLiveIDsByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]uuid.UUID, error)

	SetClosedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, closed bool) error
	SetDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error

	// SoftDeleteByCompanyTx sweeps every live job under the company,
	// returning the ids that were swept so dependent rows can follow.
	SoftDeleteByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID, at time.Time) ([]uuid.UUID, error)
	ClearAddedByTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type jobs struct {
	repository.Repository[*Job]
	db *bun.DB
}

var _ Jobs = (*jobs)(nil)

func NewJobsRepository(db *bun.DB) Jobs {
	repo := repository.NewRepository[*Job](db, repository.ModelHandlers[*Job]{
		NewRecord: func() *Job { return &Job{} },
		GetID: func(j *Job) uuid.UUID {
			if j == nil {
				return uuid.Nil
			}
			return j.ID
		},
		SetID: func(j *Job, id uuid.UUID) {
			if j != nil {
				j.ID = id
			}
		},
		GetIdentifier: func() string {
			return ""
		},
	})

	return &jobs{
		Repository: repo,
		db:         db,
	}
}

func (a *jobs) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Job, error) {
	record := &Job{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound("job", map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *jobs) Search(ctx context.Context, filter JobFilter) ([]*Job, error) {
	var records []*Job
	q := a.db.NewSelect().Model(&records).
		Where("?TableAlias.deleted_at IS NULL")

	if filter.CompanyID != uuid.Nil {
		q = q.Where("?TableAlias.company_id = ?", filter.CompanyID)
	}

	if filter.CompanyName != "" {
		q = q.Where(`?TableAlias.company_id IN (
			SELECT id FROM companies WHERE company_name LIKE ? AND deleted_at IS NULL
		)`, "%"+filter.CompanyName+"%")
	}

	if filter.Title != "" {
		q = q.Where("?TableAlias.job_title LIKE ?", "%"+filter.Title+"%")
	}

	if filter.Location != "" {
		q = q.Where("?TableAlias.job_location = ?", filter.Location)
	}

	if filter.WorkingTime != "" {
		q = q.Where("?TableAlias.working_time = ?", filter.WorkingTime)
	}

	if filter.Seniority != "" {
		q = q.Where("?TableAlias.seniority_level = ?", filter.Seniority)
	}

	if filter.Skill != "" {
		q = q.Where("?TableAlias.technical_skills LIKE ?", "%"+filter.Skill+"%")
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := q.Order("created_at DESC").Scan(ctx)

	return records, err
}

func (a *jobs) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*Job, error) {
	var records []*Job
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.company_id = ?", companyID).
		Where("?TableAlias.deleted_at IS NULL").
		Order("created_at DESC").
		Scan(ctx)

	return records, err
}

func (a *jobs) ListLiveIDsByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.NewSelect().Model((*Job)(nil)).
		Column("id").
		Where("?TableAlias.company_id = ?", companyID).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx, &ids)

	return ids, err
}

func (a *jobs) SetClosedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, closed bool) error {
	_, err := tx.NewUpdate().Model((*Job)(nil)).
		Set("closed = ?", closed).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *jobs) SetDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error {
	_, err := tx.NewUpdate().Model((*Job)(nil)).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *jobs) SoftDeleteByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	ids, err := a.ListLiveIDsByCompanyTx(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	_, err = tx.NewUpdate().Model((*Job)(nil)).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", at).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// ClearAddedByTx scrubs attribution columns when the referenced user is
// hard-deleted by the retention sweep.
func (a *jobs) ClearAddedByTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	if _, err := tx.NewUpdate().Model((*Job)(nil)).
		Set("added_by = NULL").
		Where("added_by = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	_, err := tx.NewUpdate().Model((*Job)(nil)).
		Set("updated_by = NULL").
		Where("updated_by = ?", userID).
		Exec(ctx)

	return err
}

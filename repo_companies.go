package jobboard

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Companies interface {
	repository.Repository[*Company]

	// GetWithHRs loads the company and hydrates its HR membership set.
	GetWithHRs(ctx context.Context, id uuid.UUID) (*Company, error)
	GetWithHRsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Company, error)
	GetByName(ctx context.Context, name string) (*Company, error)

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Company, error)
	ListManagedBy(ctx context.Context, userID uuid.UUID) ([]*Company, error)
	ListPendingApproval(ctx context.Context) ([]*Company, error)

	AddHRTx(ctx context.Context, tx bun.IDB, companyID, userID uuid.UUID) error
	RemoveHRTx(ctx context.Context, tx bun.IDB, companyID, userID uuid.UUID) error
	RemoveHREverywhereTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	ClearOwnerTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) error

	SetDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error
	SetBannedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error
	SetApprovedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, approved bool) error
}

type companies struct {
	repository.Repository[*Company]
	db *bun.DB
}

var _ Companies = (*companies)(nil)

func NewCompaniesRepository(db *bun.DB) Companies {
	repo := repository.NewRepository[*Company](db, repository.ModelHandlers[*Company]{
		NewRecord: func() *Company { return &Company{} },
		GetID: func(c *Company) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Company, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "company_name"
		},
	})

	return &companies{
		Repository: repo,
		db:         db,
	}
}

func (a *companies) GetWithHRs(ctx context.Context, id uuid.UUID) (*Company, error) {
	return a.GetWithHRsTx(ctx, a.db, id)
}

func (a *companies) GetWithHRsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Company, error) {
	record := &Company{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound("company", map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	hrs, err := a.loadHRs(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	record.HRs = hrs

	return record, nil
}

func (a *companies) GetByName(ctx context.Context, name string) (*Company, error) {
	record := &Company{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.company_name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound("company", map[string]any{
				"company_name": name,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *companies) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Company, error) {
	var records []*Company
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.created_by = ?", ownerID).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx)

	return records, err
}

func (a *companies) ListManagedBy(ctx context.Context, userID uuid.UUID) ([]*Company, error) {
	var records []*Company
	err := a.db.NewSelect().Model(&records).
		Join(`LEFT JOIN company_hrs AS chr ON chr.company_id = ?TableAlias.id`).
		Where("?TableAlias.deleted_at IS NULL").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.created_by = ?", userID).
				WhereOr("chr.user_id = ?", userID)
		}).
		Distinct().
		Scan(ctx)

	return records, err
}

func (a *companies) ListPendingApproval(ctx context.Context) ([]*Company, error) {
	var records []*Company
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.approved_by_admin = ?", false).
		Where("?TableAlias.deleted_at IS NULL").
		Order("created_at ASC").
		Scan(ctx)

	return records, err
}

func (a *companies) AddHRTx(ctx context.Context, tx bun.IDB, companyID, userID uuid.UUID) error {
	membership := &CompanyHR{CompanyID: companyID, UserID: userID}
	_, err := tx.NewInsert().Model(membership).
		On("CONFLICT DO NOTHING").
		Exec(ctx)

	return err
}

func (a *companies) RemoveHRTx(ctx context.Context, tx bun.IDB, companyID, userID uuid.UUID) error {
	_, err := tx.NewDelete().Model((*CompanyHR)(nil)).
		Where("company_id = ?", companyID).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

func (a *companies) RemoveHREverywhereTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().Model((*CompanyHR)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

// ClearOwnerTx detaches companies from a departing owner without deleting
// them. The company survives; an admin can reassign it later.
func (a *companies) ClearOwnerTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) error {
	_, err := tx.NewUpdate().Model((*Company)(nil)).
		Set("created_by = NULL").
		Set("updated_at = ?", time.Now()).
		Where("created_by = ?", ownerID).
		Exec(ctx)

	return err
}

func (a *companies) SetDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error {
	_, err := tx.NewUpdate().Model((*Company)(nil)).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *companies) SetBannedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error {
	_, err := tx.NewUpdate().Model((*Company)(nil)).
		Set("banned_at = ?", at).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *companies) SetApprovedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, approved bool) error {
	_, err := tx.NewUpdate().Model((*Company)(nil)).
		Set("approved_by_admin = ?", approved).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *companies) loadHRs(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]uuid.UUID, error) {
	var memberships []*CompanyHR
	err := tx.NewSelect().Model(&memberships).
		Where("?TableAlias.company_id = ?", companyID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	hrs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		hrs = append(hrs, m.UserID)
	}

	return hrs, nil
}

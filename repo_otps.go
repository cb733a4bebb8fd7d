package jobboard

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type OTPs interface {
	repository.Repository[*OTPCredential]

	CreateTx(ctx context.Context, tx bun.IDB, record *OTPCredential) (*OTPCredential, error)
	ListByPurposeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose OTPPurpose) ([]*OTPCredential, error)

	// DeleteByPurposeTx removes every outstanding code of the purpose for
	// the user. Verification consumes the whole purpose set, not one row.
	DeleteByPurposeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose OTPPurpose) error
	DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

type otps struct {
	repository.Repository[*OTPCredential]
	db *bun.DB
}

var _ OTPs = (*otps)(nil)

func NewOTPsRepository(db *bun.DB) OTPs {
	repo := repository.NewRepository[*OTPCredential](db, repository.ModelHandlers[*OTPCredential]{
		NewRecord: func() *OTPCredential { return &OTPCredential{} },
		GetID: func(o *OTPCredential) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *OTPCredential, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return ""
		},
	})

	return &otps{
		Repository: repo,
		db:         db,
	}
}

func (a *otps) CreateTx(ctx context.Context, tx bun.IDB, record *OTPCredential) (*OTPCredential, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *otps) ListByPurposeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose OTPPurpose) ([]*OTPCredential, error) {
	var records []*OTPCredential
	err := tx.NewSelect().Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.purpose = ?", purpose).
		Order("created_at DESC").
		Scan(ctx)

	return records, err
}

func (a *otps) DeleteByPurposeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose OTPPurpose) error {
	_, err := tx.NewDelete().Model((*OTPCredential)(nil)).
		Where("user_id = ?", userID).
		Where("purpose = ?", purpose).
		Exec(ctx)

	return err
}

func (a *otps) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().Model((*OTPCredential)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

func (a *otps) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := a.db.NewDelete().Model((*OTPCredential)(nil)).
		Where("expires_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return int(n), nil
}

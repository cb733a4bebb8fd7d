package jobboard

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var updateUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"change_credential_at" = ?,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	GetOrCreate(ctx context.Context, record *User) (*User, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	// UpdatePassword rewrites the hash and bumps change_credential_at in
	// the same statement: every previously issued token goes stale the
	// instant the row commits.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	ConfirmTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	SetBannedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error
	SetDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error

	// ListDeletedBefore returns users soft-deleted before the cutoff,
	// used by the retention sweep.
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*User, error)
	HardDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, recordNotFound("user", map[string]any{
		"identifier": identifier,
	})
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *users) GetOrCreate(ctx context.Context, record *User) (*User, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

func (a *users) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	identifier := record.Email
	if record.ID != uuid.Nil {
		identifier = record.ID.String()
	}

	user, err := a.GetByIdentifierTx(ctx, tx, identifier)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
		return nil, err
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	now := time.Now()
	_, err := a.db.NewUpdate().Model((*User)(nil)).
		Set("login_attempts = ?", user.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)

	return err
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	now := time.Now()
	// Second precision to match JWT iat claims.
	var res []*User
	err := tx.NewRaw(updateUserPasswordSQL, passwordHash, now.Truncate(time.Second), now, id.String()).
		Scan(ctx, &res)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return recordNotFound("user", map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *users) ConfirmTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("is_confirmed = ?", true).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) SetBannedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error {
	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("banned_at = ?", at).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) SetDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at *time.Time) error {
	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.deleted_at IS NOT NULL").
		Where("?TableAlias.deleted_at < ?", cutoff).
		Scan(ctx)

	return records, err
}

func (a *users) HardDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.Provider == "" {
		record.Provider = ProviderSystem
	}

	// JWT iat claims carry second precision. Store the credential
	// timestamp at the same granularity so a token minted in the same
	// second as the row does not read as stale.
	if record.ChangeCredentialAt.IsZero() {
		record.ChangeCredentialAt = time.Now().Truncate(time.Second)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	if len(options) == 0 {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

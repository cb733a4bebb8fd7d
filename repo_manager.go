package jobboard

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories plus transaction scoping.
// Cascades always run through RunInTx so a triggering mutation and its
// follow-on sweeps commit as one unit.
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error

	Users() Users
	OTPs() OTPs
	Companies() Companies
	Jobs() Jobs
	Applications() Applications
	Chats() Chats
}

type mngr struct {
	db           *bun.DB
	users        Users
	otps         OTPs
	companies    Companies
	jobs         Jobs
	applications Applications
	chats        Chats
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db),
		otps:         NewOTPsRepository(db),
		companies:    NewCompaniesRepository(db),
		jobs:         NewJobsRepository(db),
		applications: NewApplicationsRepository(db),
		chats:        NewChatsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.otps == nil {
		return errors.New("repository otps should be initialized")
	}

	if m.companies == nil {
		return errors.New("repository companies should be initialized")
	}

	if m.jobs == nil {
		return errors.New("repository jobs should be initialized")
	}

	if m.applications == nil {
		return errors.New("repository applications should be initialized")
	}

	if m.chats == nil {
		return errors.New("repository chats should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users               { return m.users }
func (m mngr) OTPs() OTPs                 { return m.otps }
func (m mngr) Companies() Companies       { return m.companies }
func (m mngr) Jobs() Jobs                 { return m.jobs }
func (m mngr) Applications() Applications { return m.applications }
func (m mngr) Chats() Chats               { return m.chats }

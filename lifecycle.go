package jobboard

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LifecycleManager owns every soft-delete, ban, approval, and status
// transition, plus the cascades they trigger. Cascades run inside a
// single transaction with the triggering mutation; they are never
// reversed by the opposite transition (unban does not resurrect jobs).
type LifecycleManager struct {
	repo     RepositoryManager
	logger   Logger
	sink     ActivitySink
	notifier Notifier
	now      func() time.Time
}

func NewLifecycleManager(repo RepositoryManager) *LifecycleManager {
	return &LifecycleManager{
		repo:     repo,
		logger:   &defLogger{},
		sink:     noopActivitySink{},
		notifier: noopNotifier{},
		now:      time.Now,
	}
}

func (m *LifecycleManager) WithLogger(logger Logger) *LifecycleManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *LifecycleManager) WithActivitySink(sink ActivitySink) *LifecycleManager {
	m.sink = normalizeActivitySink(sink)
	return m
}

func (m *LifecycleManager) WithNotifier(n Notifier) *LifecycleManager {
	if n != nil {
		m.notifier = n
	}
	return m
}

func (m *LifecycleManager) WithClock(now func() time.Time) *LifecycleManager {
	if now != nil {
		m.now = now
	}
	return m
}

// SoftDeleteUser marks the account deleted and unwinds its footprint:
// HR memberships removed, owned companies orphaned, job attribution
// cleared, every application of the user rejected, outstanding codes
// dropped.
func (m *LifecycleManager) SoftDeleteUser(ctx context.Context, actor *User, userID uuid.UUID) error {
	target, err := m.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionDeleteAccount, SelfResource{User: target}) {
		return ErrForbidden
	}

	now := m.now()

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.repo.Users().SetDeletedTx(ctx, tx, userID, &now); err != nil {
			return err
		}

		if err := m.repo.Companies().RemoveHREverywhereTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Companies().ClearOwnerTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Jobs().ClearAddedByTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Applications().RejectByUserTx(ctx, tx, userID); err != nil {
			return err
		}

		return m.repo.OTPs().DeleteByUserTx(ctx, tx, userID)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "user soft delete failed")
	}

	m.emit(ctx, ActivityEventUserDeleted, actor, userID.String(), nil)

	return nil
}

// SoftDeleteCompany marks the company deleted, sweeps its live jobs,
// and rejects the non-terminal applications left on them.
func (m *LifecycleManager) SoftDeleteCompany(ctx context.Context, actor *User, companyID uuid.UUID) error {
	company, err := m.loadCompany(ctx, companyID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionDeleteCompany, CompanyResource{Company: company}) {
		return ErrForbidden
	}

	now := m.now()

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.repo.Companies().SetDeletedTx(ctx, tx, companyID, &now); err != nil {
			return err
		}

		jobIDs, err := m.repo.Jobs().SoftDeleteByCompanyTx(ctx, tx, companyID, now)
		if err != nil {
			return err
		}

		return m.repo.Applications().RejectPendingByJobIDsTx(ctx, tx, jobIDs)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "company soft delete failed")
	}

	m.emit(ctx, ActivityEventCompanyDeleted, actor, companyID.String(), nil)

	return nil
}

// BanCompany sets bannedAt only. Jobs are untouched: the active-company
// gate in authorization makes them unreachable while the ban holds.
func (m *LifecycleManager) BanCompany(ctx context.Context, actor *User, companyID uuid.UUID) error {
	company, err := m.loadCompany(ctx, companyID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionBanCompany, CompanyResource{Company: company}) {
		return ErrForbidden
	}

	if company.BannedAt != nil {
		return ErrAlreadyBanned
	}

	now := m.now()
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Companies().SetBannedTx(ctx, tx, companyID, &now)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "company ban failed")
	}

	m.emit(ctx, ActivityEventCompanyBanned, actor, companyID.String(), nil)

	return nil
}

func (m *LifecycleManager) UnbanCompany(ctx context.Context, actor *User, companyID uuid.UUID) error {
	company, err := m.loadCompany(ctx, companyID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionUnbanCompany, CompanyResource{Company: company}) {
		return ErrForbidden
	}

	if company.BannedAt == nil {
		return ErrNotBanned
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Companies().SetBannedTx(ctx, tx, companyID, nil)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "company unban failed")
	}

	m.emit(ctx, ActivityEventCompanyUnbanned, actor, companyID.String(), nil)

	return nil
}

func (m *LifecycleManager) ApproveCompany(ctx context.Context, actor *User, companyID uuid.UUID) error {
	company, err := m.loadCompany(ctx, companyID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionApproveCompany, CompanyResource{Company: company}) {
		return ErrForbidden
	}

	if company.Approved {
		return ErrAlreadyApproved
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Companies().SetApprovedTx(ctx, tx, companyID, true)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "company approval failed")
	}

	m.emit(ctx, ActivityEventCompanyApproved, actor, companyID.String(), nil)

	return nil
}

func (m *LifecycleManager) BanUser(ctx context.Context, actor *User, userID uuid.UUID) error {
	target, err := m.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionBanUser, SelfResource{User: target}) {
		return ErrForbidden
	}

	if target.BannedAt != nil {
		return ErrAlreadyBanned
	}

	now := m.now()
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Users().SetBannedTx(ctx, tx, userID, &now)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "user ban failed")
	}

	m.emit(ctx, ActivityEventUserBanned, actor, userID.String(), nil)

	return nil
}

func (m *LifecycleManager) UnbanUser(ctx context.Context, actor *User, userID uuid.UUID) error {
	target, err := m.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionUnbanUser, SelfResource{User: target}) {
		return ErrForbidden
	}

	if target.BannedAt == nil {
		return ErrNotBanned
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Users().SetBannedTx(ctx, tx, userID, nil)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "user unban failed")
	}

	m.emit(ctx, ActivityEventUserUnbanned, actor, userID.String(), nil)

	return nil
}

// SoftDeleteJob marks the job deleted and rejects its non-terminal
// applications. Terminal outcomes are never reopened by a sweep.
func (m *LifecycleManager) SoftDeleteJob(ctx context.Context, actor *User, jobID uuid.UUID) error {
	job, company, err := m.loadJobWithCompany(ctx, jobID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionDeleteJob, JobResource{Job: job, Company: company}) {
		return ErrForbidden
	}

	now := m.now()
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.repo.Jobs().SetDeletedTx(ctx, tx, jobID, &now); err != nil {
			return err
		}
		return m.repo.Applications().RejectPendingByJobIDsTx(ctx, tx, []uuid.UUID{jobID})
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "job soft delete failed")
	}

	m.emit(ctx, ActivityEventJobDeleted, actor, jobID.String(), nil)

	return nil
}

// CloseJob blocks new applications without touching existing ones.
func (m *LifecycleManager) CloseJob(ctx context.Context, actor *User, jobID uuid.UUID) error {
	return m.setJobClosed(ctx, actor, jobID, true, ActivityEventJobClosed)
}

func (m *LifecycleManager) ReopenJob(ctx context.Context, actor *User, jobID uuid.UUID) error {
	return m.setJobClosed(ctx, actor, jobID, false, ActivityEventJobReopened)
}

func (m *LifecycleManager) setJobClosed(ctx context.Context, actor *User, jobID uuid.UUID, closed bool, event ActivityEventType) error {
	job, company, err := m.loadJobWithCompany(ctx, jobID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionCloseJob, JobResource{Job: job, Company: company}) {
		return ErrForbidden
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Jobs().SetClosedTx(ctx, tx, jobID, closed)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "job close toggle failed")
	}

	m.emit(ctx, event, actor, jobID.String(), map[string]any{"closed": closed})

	return nil
}

// SubmitApplication creates a pending application for the actor. The
// unique index on (job_id, user_id) is the real duplicate guard; the
// ExistsFor pre-check only produces a friendlier early error.
func (m *LifecycleManager) SubmitApplication(ctx context.Context, actor *User, jobID uuid.UUID, cv Attachment) (*Application, error) {
	job, company, err := m.loadJobWithCompany(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if company == nil || !company.IsActive() {
		return nil, ErrCompanyInactive
	}

	if !job.AcceptsApplications() {
		return nil, ErrJobNotAccepting
	}

	if !CanAct(actor, ActionApplyToJob, JobResource{Job: job, Company: company}) {
		return nil, ErrForbidden
	}

	exists, err := m.repo.Applications().ExistsFor(ctx, jobID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateApplication
	}

	application := &Application{
		JobID:  jobID,
		UserID: actor.ID,
		CV:     cv,
		Status: StatusPending,
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := m.repo.Applications().CreateTx(ctx, tx, application)
		if err != nil {
			return err
		}
		application = created
		return nil
	})
	if err != nil {
		if goerrors.Is(err, ErrDuplicateApplication) {
			return nil, ErrDuplicateApplication
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "application submit failed")
	}

	m.emit(ctx, ActivityEventApplicationSubmitted, actor, application.ID.String(), map[string]any{
		"job_id": jobID.String(),
	})

	return application, nil
}

// UpdateApplicationStatus moves an application to any status an
// authorized actor asks for. Terminal states are conventional, not
// enforced here; only cascades respect them.
func (m *LifecycleManager) UpdateApplicationStatus(ctx context.Context, actor *User, applicationID uuid.UUID, status ApplicationStatus) error {
	application, err := m.repo.Applications().GetByID(ctx, applicationID.String())
	if err != nil {
		return m.translateNotFound(err, "application not found")
	}

	job, company, err := m.loadJobWithCompany(ctx, application.JobID)
	if err != nil {
		return err
	}

	if !CanAct(actor, ActionUpdateApplication, ApplicationResource{
		Application: application,
		Job:         job,
		Company:     company,
	}) {
		return ErrForbidden
	}

	previous := application.Status

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Applications().SetStatusTx(ctx, tx, applicationID, status)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "application status update failed")
	}

	m.emit(ctx, ActivityEventApplicationStatus, actor, applicationID.String(), map[string]any{
		"from": previous,
		"to":   status,
	})

	if applicant, err := m.loadUser(ctx, application.UserID); err == nil {
		if err := m.notifier.ApplicationStatusChanged(ctx, applicant, job, status); err != nil {
			m.logger.Warn("status notification failed: %v", err)
		}
	}

	return nil
}

// HardDeleteUser physically removes a long-deleted account and every
// row referencing it. Called by the retention sweep, never by handlers.
func (m *LifecycleManager) HardDeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.repo.OTPs().DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Applications().DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Chats().DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Companies().RemoveHREverywhereTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Companies().ClearOwnerTx(ctx, tx, userID); err != nil {
			return err
		}

		if err := m.repo.Jobs().ClearAddedByTx(ctx, tx, userID); err != nil {
			return err
		}

		return m.repo.Users().HardDeleteTx(ctx, tx, userID)
	})
}

func (m *LifecycleManager) loadUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := m.repo.Users().GetByIdentifier(ctx, id.String())
	if err != nil {
		return nil, m.translateNotFound(err, "user not found")
	}
	return user, nil
}

func (m *LifecycleManager) loadCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	company, err := m.repo.Companies().GetWithHRs(ctx, id)
	if err != nil {
		return nil, m.translateNotFound(err, "company not found")
	}
	return company, nil
}

func (m *LifecycleManager) loadJobWithCompany(ctx context.Context, jobID uuid.UUID) (*Job, *Company, error) {
	job, err := m.repo.Jobs().GetByID(ctx, jobID.String())
	if err != nil {
		return nil, nil, m.translateNotFound(err, "job not found")
	}

	company, err := m.repo.Companies().GetWithHRs(ctx, job.CompanyID)
	if err != nil {
		return nil, nil, m.translateNotFound(err, "company not found")
	}

	return job, company, nil
}

func (m *LifecycleManager) translateNotFound(err error, msg string) error {
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return goerrors.New(msg, goerrors.CategoryNotFound).
			WithTextCode(TextCodeNotFound).
			WithCode(goerrors.CodeNotFound)
	}
	return err
}

func (m *LifecycleManager) emit(ctx context.Context, event ActivityEventType, actor *User, subjectID string, metadata map[string]any) {
	ref := ActorRef{Type: "system"}
	if actor != nil {
		ref = ActorRef{ID: actor.ID.String(), Type: "user"}
	}

	if err := m.sink.Record(ctx, ActivityEvent{
		EventType:  event,
		Actor:      ref,
		SubjectID:  subjectID,
		Metadata:   metadata,
		OccurredAt: m.now(),
	}); err != nil {
		m.logger.Warn("activity sink error: %v", err)
	}
}

package jobboard

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// OTPDefaultTTL is how long an issued code stays redeemable.
var OTPDefaultTTL = 10 * time.Minute

// OTPEngine issues and verifies one-time codes. Only the bcrypt hash is
// stored; the plaintext goes out once, through the notifier.
type OTPEngine struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger
	sink     ActivitySink
	ttl      time.Duration
	now      func() time.Time
}

func NewOTPEngine(repo RepositoryManager) *OTPEngine {
	return &OTPEngine{
		repo:     repo,
		notifier: noopNotifier{},
		logger:   &defLogger{},
		sink:     noopActivitySink{},
		ttl:      OTPDefaultTTL,
		now:      time.Now,
	}
}

func (e *OTPEngine) WithNotifier(n Notifier) *OTPEngine {
	if n != nil {
		e.notifier = n
	}
	return e
}

func (e *OTPEngine) WithLogger(logger Logger) *OTPEngine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

func (e *OTPEngine) WithActivitySink(sink ActivitySink) *OTPEngine {
	e.sink = normalizeActivitySink(sink)
	return e
}

func (e *OTPEngine) WithTTL(ttl time.Duration) *OTPEngine {
	if ttl > 0 {
		e.ttl = ttl
	}
	return e
}

func (e *OTPEngine) WithClock(now func() time.Time) *OTPEngine {
	if now != nil {
		e.now = now
	}
	return e
}

// Issue generates a fresh 6-digit code for the purpose and returns the
// plaintext for out-of-band delivery. Outstanding codes of the same
// purpose stay valid; reissue does not invalidate them.
func (e *OTPEngine) Issue(ctx context.Context, user *User, purpose OTPPurpose) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "otp generation failed")
	}

	hash, err := HashOTP(code)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "otp hashing failed")
	}

	record := &OTPCredential{
		UserID:    user.ID,
		CodeHash:  hash,
		Purpose:   purpose,
		ExpiresAt: e.now().Add(e.ttl),
	}

	err = e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := e.repo.OTPs().CreateTx(ctx, tx, record)
		return err
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "otp persist failed")
	}

	return code, nil
}

// Verify checks the candidate against every live code of the purpose.
// On the first match it removes ALL codes of that purpose, so a code is
// consumed at most once and siblings cannot be replayed afterwards.
// Expiry is evaluated here against the wall clock; the background purge
// is hygiene, not correctness.
func (e *OTPEngine) Verify(ctx context.Context, user *User, purpose OTPPurpose, candidate string) error {
	if candidate == "" {
		return ErrInvalidOrExpiredOTP
	}

	now := e.now()

	var matched bool

	err := e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		records, err := e.repo.OTPs().ListByPurposeTx(ctx, tx, user.ID, purpose)
		if err != nil {
			return err
		}

		for _, record := range records {
			if record.Expired(now) {
				continue
			}
			if CompareOTP(candidate, record.CodeHash) {
				matched = true
				break
			}
		}

		if !matched {
			return ErrInvalidOrExpiredOTP
		}

		if err := e.repo.OTPs().DeleteByPurposeTx(ctx, tx, user.ID, purpose); err != nil {
			return err
		}

		if purpose == PurposeConfirmEmail {
			return e.repo.Users().ConfirmTx(ctx, tx, user.ID)
		}

		return nil
	})
	if err != nil {
		if goerrors.Is(err, ErrInvalidOrExpiredOTP) {
			return ErrInvalidOrExpiredOTP
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "otp verification failed")
	}

	if purpose == PurposeConfirmEmail {
		e.emit(ctx, ActivityEventEmailConfirmed, user)

		if err := e.notifier.Welcome(ctx, user); err != nil {
			e.logger.Warn("welcome notification failed: %v", err)
		}
	}

	return nil
}

// PurgeExpired drops every code past its expiry. Returns the number of
// rows removed.
func (e *OTPEngine) PurgeExpired(ctx context.Context) (int, error) {
	return e.repo.OTPs().DeleteExpired(ctx, e.now())
}

func (e *OTPEngine) emit(ctx context.Context, event ActivityEventType, user *User) {
	if err := e.sink.Record(ctx, ActivityEvent{
		EventType:  event,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		SubjectID:  user.ID.String(),
		OccurredAt: e.now(),
	}); err != nil {
		e.logger.Warn("activity sink error: %v", err)
	}
}

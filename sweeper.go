package jobboard

import (
	"context"
	"time"
)

// OTPPurgeInterval controls how often expired codes are dropped.
// Expiry is enforced at verify-time; the purge only bounds table growth.
var OTPPurgeInterval = 6 * time.Hour

// RetentionPeriod is the grace window between soft delete and physical
// removal of a user account.
var RetentionPeriod = 30 * 24 * time.Hour

// RetentionSweepInterval controls how often the grace window is checked.
var RetentionSweepInterval = 24 * time.Hour

// Sweeper runs the periodic maintenance loops.
type Sweeper struct {
	repo      RepositoryManager
	otp       *OTPEngine
	lifecycle *LifecycleManager
	logger    Logger
	now       func() time.Time
}

func NewSweeper(repo RepositoryManager, otp *OTPEngine, lifecycle *LifecycleManager) *Sweeper {
	return &Sweeper{
		repo:      repo,
		otp:       otp,
		lifecycle: lifecycle,
		logger:    &defLogger{},
		now:       time.Now,
	}
}

func (s *Sweeper) WithLogger(logger Logger) *Sweeper {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Run blocks until the context is cancelled, firing both sweeps on
// their own tickers.
func (s *Sweeper) Run(ctx context.Context) {
	otpTicker := time.NewTicker(OTPPurgeInterval)
	defer otpTicker.Stop()

	retentionTicker := time.NewTicker(RetentionSweepInterval)
	defer retentionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-otpTicker.C:
			s.PurgeExpiredOTPs(ctx)
		case <-retentionTicker.C:
			s.SweepDeletedUsers(ctx)
		}
	}
}

// PurgeExpiredOTPs drops every expired code.
func (s *Sweeper) PurgeExpiredOTPs(ctx context.Context) {
	n, err := s.otp.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("otp purge failed: %v", err)
		return
	}

	if n > 0 {
		s.logger.Info("otp purge removed %d expired codes", n)
	}
}

// SweepDeletedUsers hard-deletes accounts whose soft delete is older
// than the retention period, running the full removal cascade per user.
func (s *Sweeper) SweepDeletedUsers(ctx context.Context) {
	cutoff := s.now().Add(-RetentionPeriod)

	expired, err := s.repo.Users().ListDeletedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep query failed: %v", err)
		return
	}

	for _, user := range expired {
		if err := s.lifecycle.HardDeleteUser(ctx, user.ID); err != nil {
			s.logger.Error("retention sweep failed for user %s: %v", user.ID, err)
			continue
		}
		s.logger.Info("retention sweep removed user %s", user.ID)
	}
}

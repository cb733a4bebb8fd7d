package jobboard

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess         ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure         ActivityEventType = "auth.login.failure"
	ActivityEventSocialLogin          ActivityEventType = "auth.social.login"
	ActivityEventSignup               ActivityEventType = "auth.signup"
	ActivityEventEmailConfirmed       ActivityEventType = "auth.email.confirmed"
	ActivityEventPasswordResetSuccess ActivityEventType = "auth.password.reset"
	ActivityEventUserDeleted          ActivityEventType = "user.deleted"
	ActivityEventUserBanned           ActivityEventType = "user.banned"
	ActivityEventUserUnbanned         ActivityEventType = "user.unbanned"
	ActivityEventCompanyDeleted       ActivityEventType = "company.deleted"
	ActivityEventCompanyBanned        ActivityEventType = "company.banned"
	ActivityEventCompanyUnbanned      ActivityEventType = "company.unbanned"
	ActivityEventCompanyApproved      ActivityEventType = "company.approved"
	ActivityEventJobDeleted           ActivityEventType = "job.deleted"
	ActivityEventJobClosed            ActivityEventType = "job.closed"
	ActivityEventJobReopened          ActivityEventType = "job.reopened"
	ActivityEventApplicationSubmitted ActivityEventType = "application.submitted"
	ActivityEventApplicationStatus    ActivityEventType = "application.status.changed"
)

// ActorRef identifies who performed an action.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	SubjectID  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

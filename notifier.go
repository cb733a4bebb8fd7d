package jobboard

import (
	"bytes"
	"context"
	"html/template"

	goerrors "github.com/goliatone/go-errors"
)

// Notifier sends user-facing notifications. Delivery is out-of-band and
// best-effort; callers log failures and continue.
type Notifier interface {
	VerificationCode(ctx context.Context, user *User, code string) error
	Welcome(ctx context.Context, user *User) error
	PasswordResetCode(ctx context.Context, user *User, code string) error
	ApplicationStatusChanged(ctx context.Context, user *User, job *Job, status ApplicationStatus) error
}

type noopNotifier struct{}

func (noopNotifier) VerificationCode(context.Context, *User, string) error { return nil }
func (noopNotifier) Welcome(context.Context, *User) error                  { return nil }
func (noopNotifier) PasswordResetCode(context.Context, *User, string) error {
	return nil
}
func (noopNotifier) ApplicationStatusChanged(context.Context, *User, *Job, ApplicationStatus) error {
	return nil
}

// NoopNotifier returns a Notifier that drops everything. Useful in tests
// and for deployments without an email provider.
func NoopNotifier() Notifier { return noopNotifier{} }

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`
<p>Hi {{.Name}},</p>
<p>Your email confirmation code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in 10 minutes.</p>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`
<p>Hi {{.Name}},</p>
<p>Your email is confirmed. Welcome aboard!</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(`
<p>Hi {{.Name}},</p>
<p>Your password reset code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in 10 minutes. If you did not request this, ignore this message.</p>`))

	statusTmpl = template.Must(template.New("status").Parse(`
<p>Hi {{.Name}},</p>
<p>Your application for <strong>{{.JobTitle}}</strong> is now <strong>{{.Status}}</strong>.</p>`))
)

// EmailNotifier renders HTML notifications and hands them to a Mailer.
type EmailNotifier struct {
	mailer Mailer
	logger Logger
}

var _ Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(mailer Mailer) *EmailNotifier {
	return &EmailNotifier{
		mailer: mailer,
		logger: &defLogger{},
	}
}

func (n *EmailNotifier) WithLogger(logger Logger) *EmailNotifier {
	if logger != nil {
		n.logger = logger
	}
	return n
}

func (n *EmailNotifier) VerificationCode(ctx context.Context, user *User, code string) error {
	return n.send(ctx, user, "Confirm your email", verificationTmpl, map[string]any{
		"Name": user.FirstName,
		"Code": code,
	})
}

func (n *EmailNotifier) Welcome(ctx context.Context, user *User) error {
	return n.send(ctx, user, "Welcome!", welcomeTmpl, map[string]any{
		"Name": user.FirstName,
	})
}

func (n *EmailNotifier) PasswordResetCode(ctx context.Context, user *User, code string) error {
	return n.send(ctx, user, "Reset your password", resetTmpl, map[string]any{
		"Name": user.FirstName,
		"Code": code,
	})
}

func (n *EmailNotifier) ApplicationStatusChanged(ctx context.Context, user *User, job *Job, status ApplicationStatus) error {
	title := "a job"
	if job != nil {
		title = job.Title
	}

	return n.send(ctx, user, "Application update", statusTmpl, map[string]any{
		"Name":     user.FirstName,
		"JobTitle": title,
		"Status":   status,
	})
}

func (n *EmailNotifier) send(ctx context.Context, user *User, subject string, tmpl *template.Template, data map[string]any) error {
	if user == nil || user.Email == "" {
		return nil
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "notification template render failed")
	}

	if err := n.mailer.Send(ctx, user.Email, subject, body.String()); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "notification delivery failed")
	}

	return nil
}

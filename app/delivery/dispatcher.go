package delivery

import (
	"context"
	"log/slog"
)

// MailSenderInterface delivers the bundle to one email recipient.
type MailSenderInterface interface {
	Send(ctx context.Context, bundlePath, subject, recipient string) error
}

// DirectSenderInterface transfers the bundle file over the direct channel.
type DirectSenderInterface interface {
	SendDocument(ctx context.Context, bundlePath, filename string) error
}

// Outcome records one delivery attempt.
type Outcome struct {
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Report collects the per-recipient and direct-channel outcomes of one run.
type Report struct {
	Emails []Outcome `json:"emails"`
	Direct Outcome   `json:"direct"`
}

// Failures counts unsuccessful attempts across both channels.
func (r Report) Failures() int {
	failures := 0
	for _, o := range r.Emails {
		if !o.OK {
			failures++
		}
	}
	if !r.Direct.OK {
		failures++
	}
	return failures
}

// Dispatcher fans the assembled bundle out to every registered recipient and
// to the direct channel. Each attempt is independent; failures are recorded,
// never propagated.
type Dispatcher struct {
	mail    MailSenderInterface
	direct  DirectSenderInterface
	subject string
}

func NewDispatcher(mail MailSenderInterface, direct DirectSenderInterface, subject string) *Dispatcher {
	return &Dispatcher{
		mail:    mail,
		direct:  direct,
		subject: subject,
	}
}

// Deliver attempts every email recipient and the direct channel, collecting
// per-target outcomes. It always returns a complete report.
func (d *Dispatcher) Deliver(ctx context.Context, bundlePath, filename string, recipients []string) Report {
	report := Report{Emails: make([]Outcome, 0, len(recipients))}

	for _, recipient := range recipients {
		outcome := Outcome{Target: recipient, OK: true}
		if err := d.mail.Send(ctx, bundlePath, d.subject, recipient); err != nil {
			slog.Warn("Email delivery failed", "recipient", recipient, "error", err)
			outcome.OK = false
			outcome.Reason = err.Error()
		} else {
			slog.Info("Email delivered", "recipient", recipient)
		}
		report.Emails = append(report.Emails, outcome)
	}

	report.Direct = Outcome{Target: "direct-channel", OK: true}
	if err := d.direct.SendDocument(ctx, bundlePath, filename); err != nil {
		slog.Warn("Direct channel delivery failed", "error", err)
		report.Direct.OK = false
		report.Direct.Reason = err.Error()
	} else {
		slog.Info("Bundle transferred over direct channel", "filename", filename)
	}

	return report
}

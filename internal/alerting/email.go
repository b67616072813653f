package alerting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/mail.v2"

	"dip-screener/internal/model"
)

// EmailOptions configures SMTP delivery.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// Enabled reports whether every setting needed to send is present.
func (o EmailOptions) Enabled() bool {
	return o.Host != "" && o.Username != "" && o.Password != "" && len(o.To) > 0
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// EmailNotifier sends the report as a plain-text message over SMTP.
type EmailNotifier struct {
	opts   EmailOptions
	sender sender
	logger zerolog.Logger
}

// NewEmailNotifier constructs an email notifier. Port 465 uses implicit TLS,
// other ports refuse to send unless the server offers STARTTLS.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	if opts.Port == 0 {
		opts.Port = 465
	}
	if opts.From == "" {
		opts.From = opts.Username
	}

	dialer := mail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password)
	dialer.SSL = opts.Port == 465
	if !dialer.SSL {
		dialer.StartTLSPolicy = mail.MandatoryStartTLS
	}
	if opts.Timeout > 0 {
		dialer.Timeout = opts.Timeout
	}
	return newEmailNotifier(opts, dialer, logger)
}

func newEmailNotifier(opts EmailOptions, s sender, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		opts:   opts,
		sender: s,
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

// Notify sends the report. A notifier missing settings logs and does nothing.
func (n *EmailNotifier) Notify(ctx context.Context, report *model.OpportunityReport) error {
	if !n.opts.Enabled() {
		n.logger.Info().Msg("email disabled - missing SMTP settings")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", n.opts.From)
	msg.SetHeader("To", n.opts.To...)
	msg.SetHeader("Subject", Subject(report))
	msg.SetBody("text/plain", Body(report))

	if err := n.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email via %s:%d: %w", n.opts.Host, n.opts.Port, err)
	}

	n.logger.Info().
		Str("to", strings.Join(n.opts.To, ",")).
		Int("opportunities", len(report.Opportunities)).
		Msg("email sent")
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)

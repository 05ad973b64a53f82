package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/wneessen/go-mail"

	"github.com/oggyb/elite-matchmaking/internal/config"
)

// Mailer delivers sign-in links.
type Mailer interface {
	SendMagicLink(ctx context.Context, to, link string) error
}

// NewMailer returns an SMTP mailer when SMTP_ADDR is configured, otherwise one
// that only logs the link (local development).
func NewMailer(cfg *config.Config, log *slog.Logger) (Mailer, error) {
	if cfg.Mail.SMTPAddr == "" {
		return &LogMailer{log: log}, nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Mail.SMTPAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_ADDR: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_ADDR port: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Mail.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(cfg.Mail.Username),
			mail.WithPassword(cfg.Mail.Password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{
		from:    cfg.Mail.From,
		appName: cfg.App.Name,
		send:    client.DialAndSendWithContext,
	}, nil
}

// LogMailer writes links to the log at debug level. The link is a credential;
// it never reaches info logs.
type LogMailer struct {
	log *slog.Logger
}

func (m *LogMailer) SendMagicLink(_ context.Context, to, link string) error {
	m.log.Info("magic link issued", "email", to)
	m.log.Debug("magic link", "email", to, "link", link)
	return nil
}

type SMTPMailer struct {
	from    string
	appName string

	send func(ctx context.Context, msgs ...*mail.Msg) error
}

func (m *SMTPMailer) SendMagicLink(ctx context.Context, to, link string) error {
	msg, err := m.message(to, link)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send magic link: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(to, link string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Your %s sign-in link", m.appName))
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Click to sign in:\r\n\r\n%s\r\n\r\nThe link works once and expires soon.\r\n", link))
	return msg, nil
}

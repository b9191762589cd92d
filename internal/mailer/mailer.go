// Package mailer sends plain text mail over SMTP.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/wneessen/go-mail"
)

type Config struct {
	Host     string `env:"SMTP_HOST,default=localhost"`
	Port     int    `env:"SMTP_PORT,default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"DEFAULT_FROM_EMAIL,default=no-reply@example.com"`
	// TLS is one of mandatory, opportunistic or none.
	TLS string `env:"SMTP_TLS,default=opportunistic"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Host) == "" {
		errs = append(errs, "SMTP_HOST is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, "SMTP_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(cfg.From) == "" {
		errs = append(errs, "DEFAULT_FROM_EMAIL is required")
	}
	if _, ok := tlsPolicies[cfg.TLS]; !ok {
		errs = append(errs, "SMTP_TLS must be one of mandatory, opportunistic, none")
	}
	if cfg.Username != "" && cfg.Password == "" {
		errs = append(errs, "SMTP_PASSWORD is required when SMTP_USERNAME is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var tlsPolicies = map[string]mail.TLSPolicy{
	"mandatory":     mail.TLSMandatory,
	"opportunistic": mail.TLSOpportunistic,
	"none":          mail.NoTLS,
}

type SMTPMailer struct {
	cfg    Config
	client *mail.Client
}

func NewSMTPMailer(cfg *Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(tlsPolicies[cfg.TLS]),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}
	return &SMTPMailer{cfg: *cfg, client: client}, nil
}

// Send delivers one message to one recipient.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	msg, err := m.newMessage(recipient, subject, body)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "send mail to %s", recipient)
	}
	return nil
}

func (m *SMTPMailer) newMessage(recipient, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, errors.Wrapf(err, "invalid sender %q", m.cfg.From)
	}
	if err := msg.To(recipient); err != nil {
		return nil, errors.Wrapf(err, "invalid recipient %q", recipient)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

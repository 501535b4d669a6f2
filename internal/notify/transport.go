package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, m *Message) error
}

// sesAPI is the narrow SES v2 interface used by SESTransport.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// secretsAPI is the narrow Secrets Manager interface used by SMTPTransport.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ── SES API ───────────────────────────────────────────────────────────────────

// SESTransport sends raw MIME through the SES v2 SendEmail API.
type SESTransport struct {
	client sesAPI
	now    func() time.Time
}

// NewSESTransport returns an SES transport using cfg (region already set).
func NewSESTransport(cfg aws.Config) *SESTransport {
	return &SESTransport{client: sesv2.NewFromConfig(cfg), now: time.Now}
}

// Send implements Transport.
func (t *SESTransport) Send(ctx context.Context, m *Message) error {
	raw, err := BuildRaw(m, t.now())
	if err != nil {
		return err
	}
	out, err := t.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.From),
		Destination:      &sestypes.Destination{ToAddresses: m.To},
		Content:          &sestypes.EmailContent{Raw: &sestypes.RawMessage{Data: raw}},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	slog.Info("email sent", "transport", "ses", "message_id", aws.ToString(out.MessageId))
	return nil
}

// ── SES SMTP ──────────────────────────────────────────────────────────────────

// smtpCredentials is the JSON layout of the SMTP secret.
type smtpCredentials struct {
	Username string `json:"ses_smtp_username"`
	Password string `json:"ses_smtp_password"`
}

// sendMailFunc matches smtp.SendMail, which upgrades to STARTTLS when the
// server offers it.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport sends through the SES SMTP interface. Credentials come from a
// Secrets Manager secret, fetched on first use and kept for the transport's
// lifetime.
type SMTPTransport struct {
	host      string
	port      int
	secretARN string
	secrets   secretsAPI
	sendMail  sendMailFunc
	now       func() time.Time

	mu    sync.Mutex
	creds *smtpCredentials
}

// NewSMTPTransport returns an SMTP transport for host:port. secretsCfg is the
// configuration used to read secretARN.
func NewSMTPTransport(secretsCfg aws.Config, host string, port int, secretARN string) *SMTPTransport {
	return &SMTPTransport{
		host:      host,
		port:      port,
		secretARN: secretARN,
		secrets:   secretsmanager.NewFromConfig(secretsCfg),
		sendMail:  smtp.SendMail,
		now:       time.Now,
	}
}

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, m *Message) error {
	creds, err := t.credentials(ctx)
	if err != nil {
		return err
	}
	raw, err := BuildRaw(m, t.now())
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	auth := smtp.PlainAuth("", creds.Username, creds.Password, t.host)
	if err := t.sendMail(addr, auth, m.From, m.To, raw); err != nil {
		return fmt.Errorf("SMTP send via %s: %w", addr, err)
	}
	slog.Info("email sent", "transport", "smtp", "endpoint", addr)
	return nil
}

func (t *SMTPTransport) credentials(ctx context.Context) (*smtpCredentials, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.creds != nil {
		return t.creds, nil
	}

	out, err := t.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(t.secretARN)})
	if err != nil {
		return nil, fmt.Errorf("get SMTP secret: %w", err)
	}
	var c smtpCredentials
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &c); err != nil {
		return nil, fmt.Errorf("parse SMTP secret: %w", err)
	}
	if c.Username == "" || c.Password == "" {
		return nil, fmt.Errorf("SMTP secret %s lacks ses_smtp_username or ses_smtp_password", t.secretARN)
	}
	t.creds = &c
	return t.creds, nil
}

// ── log ───────────────────────────────────────────────────────────────────────

// LogTransport logs messages instead of sending them.
type LogTransport struct {
	Logger *slog.Logger
}

// Send implements Transport.
func (t LogTransport) Send(_ context.Context, m *Message) error {
	l := t.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("email not sent (log transport)",
		"from", m.From,
		"to", m.To,
		"subject", m.Subject,
		"attachment", m.AttachmentPath,
		"body", m.Body)
	return nil
}

package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"

	"github.com/rs/zerolog"

	"verbitskysystems.com/website/internal/core"
)

// Mailer turns a contact submission into an email to the operator.
type Mailer interface {
	SendContact(ctx context.Context, sub core.ContactSubmission) error
}

const contactSubject = "New Contact Form Submission - Verbitsky Systems"

var contactBody = template.Must(template.New("contact").Parse(`
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #18181b; color: #fafafa; padding: 20px; text-align: center; }
        .content { background: #f5f5f5; padding: 20px; }
        .field { margin-bottom: 15px; }
        .label { font-weight: bold; color: #333; }
        .value { color: #666; }
    </style>
</head>
<body>
    <div class='container'>
        <div class='header'>
            <h2>New Contact Form Submission</h2>
        </div>
        <div class='content'>
            <div class='field'>
                <div class='label'>Name:</div>
                <div class='value'>{{.Name}}</div>
            </div>
            <div class='field'>
                <div class='label'>Email:</div>
                <div class='value'>{{.Email}}</div>
            </div>
            <div class='field'>
                <div class='label'>Company:</div>
                <div class='value'>{{.Company}}</div>
            </div>
            <div class='field'>
                <div class='label'>Message:</div>
                <div class='value'>{{.Message}}</div>
            </div>
        </div>
    </div>
</body>
</html>
`))

// SMTPMailer delivers contact emails through a configured SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
	log      zerolog.Logger
}

func NewSMTPMailer(host string, port int, username, password, from, to string, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		log:      logger,
	}
}

func (m *SMTPMailer) SendContact(ctx context.Context, sub core.ContactSubmission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	body, err := renderContact(sub)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", m.to)
	fmt.Fprintf(&msg, "Reply-To: %s\r\n", sub.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", contactSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{m.to}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send contact email: %w", err)
	}
	m.log.Info().Str("to", m.to).Msg("contact email sent")
	return nil
}

func renderContact(sub core.ContactSubmission) ([]byte, error) {
	var buf bytes.Buffer
	if err := contactBody.Execute(&buf, sub); err != nil {
		return nil, fmt.Errorf("failed to render contact email: %w", err)
	}
	return buf.Bytes(), nil
}

// NoopMailer logs instead of sending; used in dev when SMTP is not
// configured, and in tests to observe deliveries.
type NoopMailer struct {
	log zerolog.Logger

	mu   sync.Mutex
	sent []core.ContactSubmission
	Fail error // when set, SendContact returns it
}

func NewNoopMailer(logger zerolog.Logger) *NoopMailer {
	return &NoopMailer{log: logger}
}

func (m *NoopMailer) SendContact(ctx context.Context, sub core.ContactSubmission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sent = append(m.sent, sub)
	m.log.Info().Str("from", sub.Email).Msg("[noop-mail] contact submission")
	return nil
}

func (m *NoopMailer) Sent() []core.ContactSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.ContactSubmission, len(m.sent))
	copy(out, m.sent)
	return out
}

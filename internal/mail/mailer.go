package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"

	"github.com/frahmantamala/blogging-platform/internal"
)

// Mailer sends account emails asynchronously. Delivery is fire-and-forget:
// a failed send is logged and dropped, never surfaced to account logic.
type Mailer struct {
	cfg    internal.MailConfig
	logger *slog.Logger
}

func New(cfg internal.MailConfig, logger *slog.Logger) *Mailer {
	if cfg.Host == "" || cfg.Sender == "" {
		logger.Warn("mailer disabled: smtp host or sender not configured")
	}
	return &Mailer{cfg: cfg, logger: logger}
}

func (m *Mailer) enabled() bool {
	return m.cfg.Host != "" && m.cfg.Sender != ""
}

// Send renders the named template and delivers it in a goroutine.
func (m *Mailer) Send(to, subject, templateName string, data map[string]any) {
	if !m.enabled() {
		m.logger.Debug("mail skipped, mailer disabled", "template", templateName)
		return
	}

	body, err := renderTemplate(templateName, data)
	if err != nil {
		m.logger.Error("failed to render mail template", "template", templateName, "error", err)
		return
	}

	go m.deliver(to, m.cfg.SubjectTag+" "+subject, body)
}

func (m *Mailer) deliver(to, subject, body string) {
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		to, m.cfg.Sender, subject, body))

	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{to}, msg); err != nil {
		m.logger.Error("failed to send email", "to", to, "subject", subject, "error", err)
		return
	}
	m.logger.Info("email sent", "to", to, "subject", subject)
}

var templates = map[string]*template.Template{
	"confirm": template.Must(template.New("confirm").Parse(
		`<p>Dear {{.Username}},</p>
<p>Welcome! To confirm your account please <a href="{{.Link}}">click here</a>.</p>
<p>Alternatively, open the following link in your browser:</p>
<p>{{.Link}}</p>`)),
	"reset_password": template.Must(template.New("reset_password").Parse(
		`<p>Dear {{.Username}},</p>
<p>To reset your password please <a href="{{.Link}}">click here</a>.</p>
<p>If you have not requested a password reset simply ignore this message.</p>`)),
	"change_email": template.Must(template.New("change_email").Parse(
		`<p>Dear {{.Username}},</p>
<p>To confirm your new email address please <a href="{{.Link}}">click here</a>.</p>
<p>If you have not requested an email address change simply ignore this message.</p>`)),
}

func renderTemplate(name string, data map[string]any) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown mail template %q", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package notification

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP connection settings for the email notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

// EmailNotifier delivers notices over SMTP.
type EmailNotifier struct {
	SMTPConfig SMTPConfig
	client     *mail.Client
}

// NewEmailNotifier creates an EmailNotifier with the given SMTP configuration.
func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30),
	}

	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if !config.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	} else {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{SMTPConfig: config, client: client}, nil
}

// Send renders the notice template and delivers it over SMTP.
func (e *EmailNotifier) Send(noticeType NoticeType, notification NotificationData, noticeTemplate NoticeTemplate) error {
	if notification.To == "" {
		return fmt.Errorf("email notification requires 'To' address")
	}

	var textBody string
	if noticeTemplate.Text != "" {
		body, err := renderTemplate("text", noticeTemplate.Text, notification.Data)
		if err != nil {
			return err
		}
		textBody = body
	}

	var htmlBody string
	if noticeTemplate.Html != "" {
		body, err := renderTemplate("html", noticeTemplate.Html, notification.Data)
		if err != nil {
			return err
		}
		htmlBody = body
	}

	msg := mail.NewMsg()
	if err := msg.From(e.SMTPConfig.From); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(notification.To); err != nil {
		return fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject(noticeTemplate.Subject)

	if textBody != "" {
		msg.SetBodyString(mail.TypeTextPlain, textBody)
	}
	if htmlBody != "" {
		if textBody != "" {
			msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
		} else {
			msg.SetBodyString(mail.TypeTextHTML, htmlBody)
		}
	}

	if err := e.client.DialAndSend(msg); err != nil {
		slog.Error("Failed to send email", "err", err, "noticeType", noticeType)
		return err
	}

	slog.Info("Email sent", "to", notification.To, "noticeType", noticeType)
	return nil
}

func renderTemplate(name, content string, data map[string]string) (string, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

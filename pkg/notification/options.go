package notification

import (
	"embed"
	"log/slog"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NotificationManagerOption configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// WithSMTP adds an email notifier with the provided SMTP configuration
func WithSMTP(config SMTPConfig) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		emailNotifier, err := NewEmailNotifier(config)
		if err != nil {
			return err
		}
		nm.RegisterNotifier(EmailSystem, emailNotifier)
		return nil
	}
}

// WithTwofaCodeTemplate registers the 2FA passcode email template
func WithTwofaCodeTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(TwofaCodeNotice, EmailSystem, NoticeTemplate{
			Subject: "Your verification code",
			Html:    loadTemplate("templates/email/twofa_code.html"),
		})
	}
}

// WithEmailConfirmationTemplate registers the email confirmation template
func WithEmailConfirmationTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailConfirmationNotice, EmailSystem, NoticeTemplate{
			Subject: "Confirm your email address",
			Html:    loadTemplate("templates/email/email_confirmation.html"),
		})
	}
}

// WithPasswordResetTemplate registers the password reset template
func WithPasswordResetTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{
			Subject: "Reset your password",
			Html:    loadTemplate("templates/email/password_reset.html"),
		})
	}
}

// WithRecoveryCodesTemplate registers the recovery codes notice template
func WithRecoveryCodesTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(RecoveryCodesNotice, EmailSystem, NoticeTemplate{
			Subject: "New recovery codes were generated",
			Html:    loadTemplate("templates/email/recovery_codes.html"),
		})
	}
}

// WithAllEmailTemplates registers every built-in email template
func WithAllEmailTemplates() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		options := []NotificationManagerOption{
			WithTwofaCodeTemplate(),
			WithEmailConfirmationTemplate(),
			WithPasswordResetTemplate(),
			WithRecoveryCodesTemplate(),
		}
		for _, option := range options {
			if err := option(nm); err != nil {
				return err
			}
		}
		return nil
	}
}

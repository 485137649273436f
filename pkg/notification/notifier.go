package notification

// NotificationSystem represents a delivery channel (e.g., email, SMS).
type NotificationSystem string

// NoticeType identifies a kind of notice sent to users.
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	TwofaCodeNotice         NoticeType = "twofa_code"
	EmailConfirmationNotice NoticeType = "email_confirmation"
	PasswordResetNotice     NoticeType = "password_reset"
	RecoveryCodesNotice     NoticeType = "recovery_codes_generated"
)

// NoticeTemplate holds the renderable content of a notice.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// NotificationData carries the recipient and template data for one delivery.
type NotificationData struct {
	To   string
	Data map[string]string
}

// Notifier sends a rendered notice over one delivery channel.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}

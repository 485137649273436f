package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendUsesRegisteredTemplate(t *testing.T) {
	nm, err := NewNotificationManager("http://localhost:4000", WithAllEmailTemplates())
	require.NoError(t, err)

	mock := &MockNotifier{}
	nm.RegisterNotifier(EmailSystem, mock)

	err = nm.Send(TwofaCodeNotice, NotificationData{
		To:   "user@example.com",
		Data: map[string]string{"Passcode": "123456"},
	})
	require.NoError(t, err)
	require.Len(t, mock.Sent, 1)
	assert.Equal(t, "user@example.com", mock.Sent[0].To)
}

func TestSendUnknownNoticeType(t *testing.T) {
	nm, err := NewNotificationManager("http://localhost:4000")
	require.NoError(t, err)

	err = nm.Send(NoticeType("nonexistent"), NotificationData{To: "user@example.com"})
	assert.Error(t, err)
}

func TestSendWithoutNotifier(t *testing.T) {
	nm, err := NewNotificationManager("http://localhost:4000", WithTwofaCodeTemplate())
	require.NoError(t, err)

	err = nm.Send(TwofaCodeNotice, NotificationData{To: "user@example.com"})
	assert.Error(t, err, "template registered but no notifier for the system")
}

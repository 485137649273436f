package notification

// MockNotifier records sent notices for tests.
type MockNotifier struct {
	Sent []NotificationData
}

func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	m.Sent = append(m.Sent, notification)
	return nil
}

package notification

import (
	"fmt"
)

// NotificationManager manages notifiers and notice templates.
type NotificationManager struct {
	BaseUrl   string
	notifiers map[NotificationSystem]Notifier
	registry  map[NoticeType]map[NotificationSystem]NoticeTemplate
}

// NewNotificationManager creates a NotificationManager and applies options.
func NewNotificationManager(baseUrl string, options ...NotificationManagerOption) (*NotificationManager, error) {
	nm := &NotificationManager{
		BaseUrl:   baseUrl,
		notifiers: make(map[NotificationSystem]Notifier),
		registry:  make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}
	for _, option := range options {
		if err := option(nm); err != nil {
			return nil, err
		}
	}
	return nm, nil
}

// RegisterNotifier registers a notifier for a delivery system.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.notifiers[system] = notifier
}

// RegisterNotification adds a notice template to the registry.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, system NotificationSystem, template NoticeTemplate) error {
	if noticeType == "" || system == "" {
		return fmt.Errorf("invalid input: notice type and system cannot be empty")
	}
	if _, exists := nm.registry[noticeType]; !exists {
		nm.registry[noticeType] = make(map[NotificationSystem]NoticeTemplate)
	}
	nm.registry[noticeType][system] = template
	return nil
}

// Send delivers a notice through every system that has a registered template.
func (nm *NotificationManager) Send(noticeType NoticeType, notification NotificationData) error {
	systemTemplates, exists := nm.registry[noticeType]
	if !exists {
		return fmt.Errorf("no templates registered for notice type: %s", noticeType)
	}

	var lastErr error
	sent := false
	for system, template := range systemTemplates {
		notifier, ok := nm.notifiers[system]
		if !ok {
			lastErr = fmt.Errorf("no notifier registered for system: %s", system)
			continue
		}
		if err := notifier.Send(noticeType, notification, template); err != nil {
			lastErr = err
			continue
		}
		sent = true
	}
	if !sent && lastErr != nil {
		return lastErr
	}
	return nil
}

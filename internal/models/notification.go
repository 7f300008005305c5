package models

// NotificationType drives the icon/colour of a dashboard notification
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifySystem  NotificationType = "system"
)

// NotificationEvent is a user-facing, process-local event
type NotificationEvent struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Time      string           `json:"time"` // wall clock, HH:MM
	Type      NotificationType `json:"type"`
	Timestamp int64            `json:"timestamp"` // unix millis
}

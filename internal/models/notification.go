package models

import "time"

// NotificationType enumerates the kinds of notification records.
type NotificationType string

const (
	NotificationLike   NotificationType = "like"
	NotificationFollow NotificationType = "follow"
)

// Notification is a persisted notification record. User references are the
// hex form of the Mongo user ids. Read is owned by the delivery side.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	FromUser  string           `gorm:"column:from_user;size:24;not null;index" json:"from"`
	ToUser    string           `gorm:"column:to_user;size:24;not null;index" json:"to"`
	Type      NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// TableName pins the table name used by the SQL migrations.
func (Notification) TableName() string {
	return "notifications"
}

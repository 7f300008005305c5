package models

import (
	"time"

	"gorm.io/datatypes"
)

// PublishedAction is a journal row for one outbound publish
type PublishedAction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Topic       string         `gorm:"type:varchar(255);not null;index" json:"topic"`
	Kind        string         `gorm:"type:varchar(16);not null" json:"kind"` // state | action
	Retained    bool           `gorm:"default:false" json:"retained"`
	Payload     datatypes.JSON `json:"payload"`
	PublishedAt time.Time      `gorm:"not null;index" json:"published_at"`
}

// TableName specifies the table name for PublishedAction
func (PublishedAction) TableName() string {
	return "published_actions"
}

package notification

import (
	"time"

	"gorm.io/datatypes"
)

// Notification records one delivery attempt, successful or not, so support
// can answer "did the host ever get that email".
type Notification struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;index;not null" json:"user_id"`
	Kind      string         `gorm:"column:kind;not null" json:"kind"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	SentAt    *time.Time     `gorm:"column:sent_at" json:"sent_at,omitempty"`
	Error     string         `gorm:"column:error" json:"error,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

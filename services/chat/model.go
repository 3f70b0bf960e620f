package chat

import "time"

// Conversation is the single traveler to host thread for one travel plan.
type Conversation struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	TravelPlanID string    `gorm:"column:travel_plan_id;uniqueIndex:idx_conversation_participants;not null" json:"travel_plan_id"`
	TravelerID   string    `gorm:"column:traveler_id;uniqueIndex:idx_conversation_participants;not null" json:"traveler_id"`
	HostID       string    `gorm:"column:host_id;index;not null" json:"host_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type Message struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	ConversationID string     `gorm:"column:conversation_id;index;not null" json:"conversation_id"`
	SenderID       string     `gorm:"column:sender_id;not null" json:"sender_id"`
	Body           string     `gorm:"column:body;type:text;not null" json:"body"`
	ReadAt         *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

package support

import (
	"time"

	"gorm.io/datatypes"
)

type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityNormal TicketPriority = "NORMAL"
	PriorityHigh   TicketPriority = "HIGH"
)

type SupportTicket struct {
	ID            string         `gorm:"column:id;primaryKey" json:"id"`
	Code          string         `gorm:"column:code;uniqueIndex;not null" json:"code"`
	RequesterID   string         `gorm:"column:requester_id;index;not null" json:"requester_id"`
	Subject       string         `gorm:"column:subject;not null" json:"subject"`
	Body          string         `gorm:"column:body;type:text" json:"body"`
	Status        TicketStatus   `gorm:"column:status;type:varchar(20);default:'OPEN'" json:"status"`
	Priority      TicketPriority `gorm:"column:priority;type:varchar(20);default:'NORMAL'" json:"priority"`
	AttachmentURL string         `gorm:"column:attachment_url" json:"attachment_url,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

type TicketReply struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	TicketID  string    `gorm:"column:ticket_id;index;not null" json:"ticket_id"`
	AuthorID  string    `gorm:"column:author_id;not null" json:"author_id"`
	Body      string    `gorm:"column:body;type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TicketReply) TableName() string {
	return "ticket_replies"
}

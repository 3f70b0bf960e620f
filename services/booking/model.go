package booking

import (
	"time"

	"unplan-backend/services/trip"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Booking ties a traveler to a travel plan. HostID is denormalized from the
// plan at creation time so host-side aggregates avoid a join.
type Booking struct {
	ID            string        `gorm:"column:id;primaryKey" json:"id"`
	Code          string        `gorm:"column:code;uniqueIndex;not null" json:"code"`
	TravelPlanID  string        `gorm:"column:travel_plan_id;index;not null" json:"travel_plan_id"`
	TravelerID    string        `gorm:"column:traveler_id;index;not null" json:"traveler_id"`
	HostID        string        `gorm:"column:host_id;index;not null" json:"host_id"`
	Participants  int           `gorm:"column:participants;default:1" json:"participants"`
	TotalAmount   int64         `gorm:"column:total_amount;not null" json:"total_amount"`
	Currency      string        `gorm:"column:currency;type:varchar(3)" json:"currency"`
	Status        Status        `gorm:"column:status;type:varchar(20);default:'PENDING';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(20);default:'UNPAID'" json:"payment_status"`
	CancelledAt   *time.Time    `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	TravelPlan *trip.TravelPlan `gorm:"foreignKey:TravelPlanID" json:"travel_plan,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

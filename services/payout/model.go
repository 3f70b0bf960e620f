package payout

import (
	"time"

	"unplan-backend/services/booking"
)

type PayoutStatus string

const (
	StatusPending PayoutStatus = "PENDING"
	StatusPaid    PayoutStatus = "PAID"
)

// Installment names the two halves of a payout schedule.
type Installment string

const (
	InstallmentFirst  Installment = "first"
	InstallmentSecond Installment = "second"
)

// Payout is the two-installment payment schedule owed to a host for one
// booking. The unique index on booking_id is the real guard against two
// payouts for the same booking; the application-level precheck only exists
// for a friendlier error message.
type Payout struct {
	ID                   string       `gorm:"column:id;primaryKey" json:"id"`
	Code                 string       `gorm:"column:code;uniqueIndex;not null" json:"code"`
	BookingID            string       `gorm:"column:booking_id;uniqueIndex;not null" json:"booking_id"`
	HostID               string       `gorm:"column:host_id;index;not null" json:"host_id"`
	TotalAmount          int64        `gorm:"column:total_amount;not null" json:"total_amount"`
	Currency             string       `gorm:"column:currency;type:varchar(3)" json:"currency"`
	FirstPaymentPercent  int          `gorm:"column:first_payment_percent;not null" json:"first_payment_percent"`
	SecondPaymentPercent int          `gorm:"column:second_payment_percent;not null" json:"second_payment_percent"`
	FirstPaymentAmount   int64        `gorm:"column:first_payment_amount;not null" json:"first_payment_amount"`
	SecondPaymentAmount  int64        `gorm:"column:second_payment_amount;not null" json:"second_payment_amount"`
	FirstPaymentDate     time.Time    `gorm:"column:first_payment_date;not null" json:"first_payment_date"`
	SecondPaymentDate    time.Time    `gorm:"column:second_payment_date;not null" json:"second_payment_date"`
	FirstPaymentStatus   PayoutStatus `gorm:"column:first_payment_status;type:varchar(20);default:'PENDING'" json:"first_payment_status"`
	SecondPaymentStatus  PayoutStatus `gorm:"column:second_payment_status;type:varchar(20);default:'PENDING'" json:"second_payment_status"`
	FirstPaymentPaidAt   *time.Time   `gorm:"column:first_payment_paid_at" json:"first_payment_paid_at,omitempty"`
	SecondPaymentPaidAt  *time.Time   `gorm:"column:second_payment_paid_at" json:"second_payment_paid_at,omitempty"`
	Notes                string       `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt            time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Booking *booking.Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

func (Payout) TableName() string {
	return "payouts"
}

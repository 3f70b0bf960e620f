package trip

import "time"

type PlanStatus string

const (
	StatusDraft    PlanStatus = "DRAFT"
	StatusActive   PlanStatus = "ACTIVE"
	StatusInactive PlanStatus = "INACTIVE"
)

// TravelPlan is a host-published trip travelers can book onto. PriceAmount is
// per participant, in the currency's smallest unit.
type TravelPlan struct {
	ID              string     `gorm:"column:id;primaryKey" json:"id"`
	HostID          string     `gorm:"column:host_id;index;not null" json:"host_id"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	Slug            string     `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Description     string     `gorm:"column:description;type:text" json:"description"`
	Country         string     `gorm:"column:country" json:"country"`
	City            string     `gorm:"column:city" json:"city"`
	StartDate       time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	EndDate         time.Time  `gorm:"column:end_date;not null" json:"end_date"`
	PriceAmount     int64      `gorm:"column:price_amount;not null" json:"price_amount"`
	Currency        string     `gorm:"column:currency;type:varchar(3);default:'USD'" json:"currency"`
	MaxParticipants int        `gorm:"column:max_participants;default:1" json:"max_participants"`
	Status          PlanStatus `gorm:"column:status;type:varchar(20);default:'DRAFT'" json:"status"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TravelPlan) TableName() string {
	return "travel_plans"
}

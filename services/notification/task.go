package notification

import (
	"encoding/json"
	"time"

	"unplan-backend/pkg/taskname"

	"github.com/hibiken/asynq"
)

// PayoutCreatedPayload carries everything the worker needs to compose the
// schedule email without re-reading the payout row.
type PayoutCreatedPayload struct {
	PayoutID     string    `json:"payout_id"`
	BookingID    string    `json:"booking_id"`
	HostID       string    `json:"host_id"`
	TotalAmount  int64     `json:"total_amount"`
	Currency     string    `json:"currency"`
	FirstAmount  int64     `json:"first_amount"`
	SecondAmount int64     `json:"second_amount"`
	FirstDate    time.Time `json:"first_date"`
	SecondDate   time.Time `json:"second_date"`
}

func NewPayoutCreatedTask(p PayoutCreatedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.PayoutCreated, payload, asynq.Queue("default")), nil
}

// PayoutPaidPayload announces one installment transitioning to PAID.
type PayoutPaidPayload struct {
	PayoutID    string    `json:"payout_id"`
	BookingID   string    `json:"booking_id"`
	HostID      string    `json:"host_id"`
	Installment string    `json:"installment"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	DueDate     time.Time `json:"due_date"`
	PaidAt      time.Time `json:"paid_at"`
}

func NewPayoutPaidTask(p PayoutPaidPayload) (*asynq.Task, error) {
	name := taskname.PayoutFirstPaid
	if p.Installment == "second" {
		name = taskname.PayoutSecondPaid
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(name, payload, asynq.Queue("default")), nil
}

// TicketRepliedPayload notifies a ticket requester of a new reply.
type TicketRepliedPayload struct {
	TicketID    string `json:"ticket_id"`
	TicketCode  string `json:"ticket_code"`
	RequesterID string `json:"requester_id"`
	AuthorID    string `json:"author_id"`
	Body        string `json:"body"`
}

func NewTicketRepliedTask(p TicketRepliedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.TicketReplied, payload, asynq.Queue("low")), nil
}

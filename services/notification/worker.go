package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unplan-backend/pkg/mailer"
	"unplan-backend/pkg/repository"
	"unplan-backend/pkg/taskname"
	"unplan-backend/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Worker turns queued notification tasks into emails. A failed send is
// returned to asynq for retry; every attempt is recorded either way.
type Worker struct {
	node   *snowflake.Node
	mailer mailer.Mailer
	users  repository.Repository[user.User]
	log    repository.Repository[Notification]
}

type WorkerParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Mailer mailer.Mailer
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		node:   p.Node,
		mailer: p.Mailer,
		users:  repository.ProvideStore[user.User](p.DB),
		log:    repository.ProvideStore[Notification](p.DB),
	}
}

func RegisterWorker(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(taskname.PayoutCreated, w.HandlePayoutCreated)
	mux.HandleFunc(taskname.PayoutFirstPaid, w.HandlePayoutPaid)
	mux.HandleFunc(taskname.PayoutSecondPaid, w.HandlePayoutPaid)
	mux.HandleFunc(taskname.TicketReplied, w.HandleTicketReplied)
}

func formatAmount(currency string, amount int64) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %.2f", currency, float64(amount)/100)
}

func (w *Worker) HandlePayoutCreated(ctx context.Context, t *asynq.Task) error {
	var p PayoutCreatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	subject := "Your payout schedule is ready"
	body := fmt.Sprintf(
		"A payout schedule was created for booking %s.\n\n"+
			"Total: %s\n"+
			"First installment: %s, due %s\n"+
			"Second installment: %s, due %s\n",
		p.BookingID,
		formatAmount(p.Currency, p.TotalAmount),
		formatAmount(p.Currency, p.FirstAmount), p.FirstDate.Format("2 Jan 2006"),
		formatAmount(p.Currency, p.SecondAmount), p.SecondDate.Format("2 Jan 2006"),
	)

	return w.deliver(ctx, p.HostID, t.Type(), t.Payload(), subject, body)
}

func (w *Worker) HandlePayoutPaid(ctx context.Context, t *asynq.Task) error {
	var p PayoutPaidPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	subject := fmt.Sprintf("Your %s installment was paid", p.Installment)
	body := fmt.Sprintf(
		"The %s installment of %s for booking %s was paid on %s.\n",
		p.Installment,
		formatAmount(p.Currency, p.Amount),
		p.BookingID,
		p.PaidAt.Format("2 Jan 2006"),
	)

	return w.deliver(ctx, p.HostID, t.Type(), t.Payload(), subject, body)
}

func (w *Worker) HandleTicketReplied(ctx context.Context, t *asynq.Task) error {
	var p TicketRepliedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	subject := fmt.Sprintf("New reply on ticket %s", p.TicketCode)
	body := fmt.Sprintf("Your support ticket %s has a new reply:\n\n%s\n", p.TicketCode, p.Body)

	return w.deliver(ctx, p.RequesterID, t.Type(), t.Payload(), subject, body)
}

func (w *Worker) deliver(ctx context.Context, userID, kind string, payload []byte, subject, body string) error {
	u, err := w.users.FindOne(ctx, &user.User{ID: userID})
	if err != nil {
		return err
	}
	if u == nil {
		// recipient is gone, retrying will not bring them back
		zap.L().Warn("notification recipient not found", zap.String("user_id", userID), zap.String("kind", kind))
		return nil
	}

	sendErr := w.mailer.Send(u.Email, subject, body)
	w.record(ctx, userID, kind, payload, sendErr)
	return sendErr
}

func (w *Worker) record(ctx context.Context, userID, kind string, payload []byte, sendErr error) {
	n := &Notification{
		ID:      w.node.Generate().String(),
		UserID:  userID,
		Kind:    kind,
		Payload: datatypes.JSON(payload),
	}
	if sendErr != nil {
		n.Error = sendErr.Error()
	} else {
		now := time.Now()
		n.SentAt = &now
	}

	if err := w.log.Create(ctx, n); err != nil {
		zap.L().Error("failed to record notification", zap.String("user_id", userID), zap.Error(err))
	}
}

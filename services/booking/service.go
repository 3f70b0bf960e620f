package booking

import (
	"context"
	"encoding/json"
	"time"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"
	"unplan-backend/pkg/sequence"
	"unplan-backend/pkg/task"
	"unplan-backend/pkg/taskname"
	"unplan-backend/services/trip"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	seq   sequence.Generator
	asynq task.Enqueuer
	repo  repository.Repository[Booking]
	plans repository.Repository[trip.TravelPlan]
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Seq   sequence.Generator `optional:"true"`
	Asynq task.Enqueuer      `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		seq:   p.Seq,
		asynq: p.Asynq,
		repo:  repository.ProvideStore[Booking](p.DB),
		plans: repository.ProvideStore[trip.TravelPlan](p.DB),
	}
}

type CreateInput struct {
	TravelPlanID string `json:"travel_plan_id" binding:"required"`
	Participants int    `json:"participants" binding:"required,gt=0"`
}

func (s *Service) Create(ctx context.Context, travelerID string, in CreateInput) (*Booking, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("traveler_id", travelerID),
	)

	plan, err := s.plans.FindOne(ctx, &trip.TravelPlan{ID: in.TravelPlanID})
	if err != nil {
		zapLog.Error("failed to query travel plan", zap.Error(err))
		return nil, errutil.Internal("failed to create booking", err)
	}
	if plan == nil {
		return nil, errutil.NotFound("travel plan not found", nil)
	}
	if plan.Status != trip.StatusActive {
		return nil, errutil.UnprocessableEntity("travel plan is not open for booking", nil)
	}
	if in.Participants > plan.MaxParticipants {
		return nil, errutil.BadRequest("participants exceeds plan capacity", nil)
	}

	code := ""
	if s.seq != nil {
		code, err = s.seq.NextBookingCode(ctx)
		if err != nil {
			zapLog.Warn("failed to generate booking code, falling back to id", zap.Error(err))
		}
	}

	b := &Booking{
		ID:            s.node.Generate().String(),
		Code:          code,
		TravelPlanID:  plan.ID,
		TravelerID:    travelerID,
		HostID:        plan.HostID,
		Participants:  in.Participants,
		TotalAmount:   plan.PriceAmount * int64(in.Participants),
		Currency:      plan.Currency,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
	}
	if b.Code == "" {
		b.Code = "BKG-" + b.ID
	}

	if err := s.repo.Create(ctx, b); err != nil {
		zapLog.Error("failed to create booking", zap.Error(err))
		return nil, errutil.Internal("failed to create booking", err)
	}

	return b, nil
}

// Confirm moves a pending booking to CONFIRMED and hands payout creation off
// to the worker. The enqueue is best effort: the daily auto-create sweep picks
// up any confirmed booking the queue missed.
func (s *Service) Confirm(ctx context.Context, hostID, bookingID string) (*Booking, error) {
	b, err := s.repo.FindOne(ctx, &Booking{ID: bookingID})
	if err != nil {
		return nil, errutil.Internal("failed to confirm booking", err)
	}
	if b == nil {
		return nil, errutil.NotFound("booking not found", nil)
	}
	if b.HostID != hostID {
		return nil, errutil.Forbidden("booking belongs to another host", nil)
	}
	if b.Status != StatusPending {
		return nil, errutil.UnprocessableEntity("only pending bookings can be confirmed", nil)
	}

	if err := s.repo.Update(ctx, b.ID, map[string]any{
		"status":         StatusConfirmed,
		"payment_status": PaymentPaid,
	}); err != nil {
		zap.L().Error("failed to confirm booking", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, errutil.Internal("failed to confirm booking", err)
	}

	s.enqueueConfirmed(b.ID)

	return s.repo.FindOne(ctx, &Booking{ID: bookingID})
}

func (s *Service) enqueueConfirmed(bookingID string) {
	if s.asynq == nil {
		return
	}

	payload, _ := json.Marshal(map[string]string{"booking_id": bookingID})
	if _, err := s.asynq.Enqueue(asynq.NewTask(taskname.BookingConfirmed, payload)); err != nil {
		zap.L().Error("failed to enqueue booking confirmed task", zap.String("booking_id", bookingID), zap.Error(err))
	}
}

func (s *Service) Cancel(ctx context.Context, travelerID, bookingID string) (*Booking, error) {
	b, err := s.repo.FindOne(ctx, &Booking{ID: bookingID})
	if err != nil {
		return nil, errutil.Internal("failed to cancel booking", err)
	}
	if b == nil {
		return nil, errutil.NotFound("booking not found", nil)
	}
	if b.TravelerID != travelerID {
		return nil, errutil.Forbidden("booking belongs to another traveler", nil)
	}
	if b.Status != StatusPending {
		return nil, errutil.UnprocessableEntity("only pending bookings can be cancelled", nil)
	}

	now := time.Now()
	if err := s.repo.Update(ctx, b.ID, map[string]any{
		"status":       StatusCancelled,
		"cancelled_at": now,
	}); err != nil {
		return nil, errutil.Internal("failed to cancel booking", err)
	}

	return s.repo.FindOne(ctx, &Booking{ID: bookingID})
}

func (s *Service) ListByTraveler(ctx context.Context, travelerID string) ([]*Booking, error) {
	out, err := s.repo.Find(ctx, &Booking{TravelerID: travelerID})
	if err != nil {
		return nil, errutil.Internal("failed to list bookings", err)
	}
	return out, nil
}

func (s *Service) ListByHost(ctx context.Context, hostID string) ([]*Booking, error) {
	out, err := s.repo.Find(ctx, &Booking{HostID: hostID})
	if err != nil {
		return nil, errutil.Internal("failed to list bookings", err)
	}
	return out, nil
}

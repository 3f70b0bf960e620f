package payout

import (
	"context"
	"errors"
	"strings"
	"time"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/db/option"
	"unplan-backend/pkg/db/pagination"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"
	"unplan-backend/pkg/sequence"
	"unplan-backend/pkg/task"
	"unplan-backend/services/booking"
	"unplan-backend/services/notification"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	config   *config.Config
	seq      sequence.Generator
	asynq    task.Enqueuer
	repo     repository.Repository[Payout]
	bookings repository.Repository[booking.Booking]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
	Seq    sequence.Generator `optional:"true"`
	Asynq  task.Enqueuer      `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		config:   p.Config,
		seq:      p.Seq,
		asynq:    p.Asynq,
		repo:     repository.ProvideStore[Payout](p.DB),
		bookings: repository.ProvideStore[booking.Booking](p.DB),
	}
}

// roundPercent computes one installment amount with round-half-up integer
// math. Each installment is rounded on its own, so the two amounts can drift
// from the total by one minor unit. That drift is accepted as-is; no
// remainder is redistributed.
func roundPercent(total int64, percent int) int64 {
	return (total*int64(percent) + 50) / 100
}

func withBooking(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Booking")
}

func withTravelPlan(tx *gorm.DB) *gorm.DB {
	return tx.Preload("TravelPlan")
}

type CreateInput struct {
	BookingID     string `json:"booking_id" binding:"required"`
	FirstPercent  *int   `json:"first_payment_percent"`
	SecondPercent *int   `json:"second_payment_percent"`
	Notes         string `json:"notes"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Payout, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("booking_id", in.BookingID),
	)

	firstPercent := s.config.Payout.FirstPercent
	secondPercent := s.config.Payout.SecondPercent
	if in.FirstPercent != nil || in.SecondPercent != nil {
		if in.FirstPercent == nil || in.SecondPercent == nil {
			return nil, errutil.ValidationFailed("first and second payment percent must be supplied together", nil)
		}
		if *in.FirstPercent+*in.SecondPercent != 100 {
			return nil, errutil.ValidationFailed("payment percents must sum to 100", nil)
		}
		firstPercent = *in.FirstPercent
		secondPercent = *in.SecondPercent
	}

	exist, err := s.repo.FindOne(ctx, &Payout{BookingID: in.BookingID})
	if err != nil {
		zapLog.Error("failed to query payout by booking", zap.Error(err))
		return nil, errutil.Internal("failed to create payout", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("payout already exists for booking", nil)
	}

	b, err := s.bookings.FindOne(ctx, &booking.Booking{ID: in.BookingID}, withTravelPlan)
	if err != nil {
		zapLog.Error("failed to query booking", zap.Error(err))
		return nil, errutil.Internal("failed to create payout", err)
	}
	if b == nil {
		return nil, errutil.NotFound("booking not found", nil)
	}
	if b.TravelPlan == nil {
		return nil, errutil.Internal("booking has no travel plan", nil)
	}

	code := ""
	if s.seq != nil {
		code, err = s.seq.NextPayoutCode(ctx)
		if err != nil {
			zapLog.Warn("failed to generate payout code, falling back to id", zap.Error(err))
		}
	}

	tripStart := b.TravelPlan.StartDate
	p := &Payout{
		ID:                   s.node.Generate().String(),
		Code:                 code,
		BookingID:            b.ID,
		HostID:               b.HostID,
		TotalAmount:          b.TotalAmount,
		Currency:             b.Currency,
		FirstPaymentPercent:  firstPercent,
		SecondPaymentPercent: secondPercent,
		FirstPaymentAmount:   roundPercent(b.TotalAmount, firstPercent),
		SecondPaymentAmount:  roundPercent(b.TotalAmount, secondPercent),
		FirstPaymentDate:     tripStart.AddDate(0, 0, -s.config.Payout.FirstLeadDays),
		SecondPaymentDate:    tripStart,
		FirstPaymentStatus:   StatusPending,
		SecondPaymentStatus:  StatusPending,
		Notes:                in.Notes,
	}
	if p.Code == "" {
		p.Code = "PYT-" + p.ID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if isUniqueViolation(err) {
			// lost the insert race; the winning row is the payout
			return nil, errutil.Conflict("payout already exists for booking", err)
		}
		zapLog.Error("failed to create payout", zap.Error(err))
		return nil, errutil.Internal("failed to create payout", err)
	}

	s.enqueueCreated(p)

	return p, nil
}

type UpdateInput struct {
	FirstPercent      *int       `json:"first_payment_percent"`
	SecondPercent     *int       `json:"second_payment_percent"`
	FirstPaymentDate  *time.Time `json:"first_payment_date"`
	SecondPaymentDate *time.Time `json:"second_payment_date"`
	Notes             *string    `json:"notes"`
}

// Update applies a sparse patch. A supplied percent recomputes only its own
// amount against the booking's total; the other half stays exactly as stored.
// The pair is not re-validated here because a patch rarely carries both.
func (s *Service) Update(ctx context.Context, payoutID string, in UpdateInput) (*Payout, error) {
	p, err := s.repo.FindOne(ctx, &Payout{ID: payoutID}, withBooking)
	if err != nil {
		return nil, errutil.Internal("failed to update payout", err)
	}
	if p == nil {
		return nil, errutil.NotFound("payout not found", nil)
	}

	total := p.TotalAmount
	if p.Booking != nil {
		total = p.Booking.TotalAmount
	}

	updates := map[string]any{}
	if in.FirstPercent != nil {
		updates["first_payment_percent"] = *in.FirstPercent
		updates["first_payment_amount"] = roundPercent(total, *in.FirstPercent)
	}
	if in.SecondPercent != nil {
		updates["second_payment_percent"] = *in.SecondPercent
		updates["second_payment_amount"] = roundPercent(total, *in.SecondPercent)
	}
	if in.FirstPaymentDate != nil {
		updates["first_payment_date"] = *in.FirstPaymentDate
	}
	if in.SecondPaymentDate != nil {
		updates["second_payment_date"] = *in.SecondPaymentDate
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, payoutID, updates); err != nil {
			zap.L().Error("failed to update payout", zap.String("payout_id", payoutID), zap.Error(err))
			return nil, errutil.Internal("failed to update payout", err)
		}
	}

	return s.repo.FindOne(ctx, &Payout{ID: payoutID})
}

// MarkPaid is a one-way transition. Marking an already-paid installment is
// allowed and simply refreshes paid_at with the later timestamp; there is no
// reverse operation.
func (s *Service) MarkPaid(ctx context.Context, payoutID string, installment Installment) (*Payout, error) {
	if installment != InstallmentFirst && installment != InstallmentSecond {
		return nil, errutil.BadRequest("installment must be first or second", nil)
	}

	p, err := s.repo.FindOne(ctx, &Payout{ID: payoutID})
	if err != nil {
		return nil, errutil.Internal("failed to mark payout paid", err)
	}
	if p == nil {
		return nil, errutil.NotFound("payout not found", nil)
	}

	now := time.Now()
	updates := map[string]any{}
	if installment == InstallmentFirst {
		updates["first_payment_status"] = StatusPaid
		updates["first_payment_paid_at"] = now
	} else {
		updates["second_payment_status"] = StatusPaid
		updates["second_payment_paid_at"] = now
	}

	if err := s.repo.Update(ctx, payoutID, updates); err != nil {
		zap.L().Error("failed to mark payout paid",
			zap.String("payout_id", payoutID),
			zap.String("installment", string(installment)),
			zap.Error(err))
		return nil, errutil.Internal("failed to mark payout paid", err)
	}

	p, err = s.repo.FindOne(ctx, &Payout{ID: payoutID})
	if err != nil {
		return nil, errutil.Internal("failed to mark payout paid", err)
	}
	if p == nil {
		return nil, errutil.NotFound("payout not found", nil)
	}

	s.enqueuePaid(p, installment, now)

	return p, nil
}

func (s *Service) Get(ctx context.Context, payoutID string) (*Payout, error) {
	p, err := s.repo.FindOne(ctx, &Payout{ID: payoutID}, withBooking)
	if err != nil {
		return nil, errutil.Internal("failed to get payout", err)
	}
	if p == nil {
		return nil, errutil.NotFound("payout not found", nil)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, pag pagination.Pagination) ([]*Payout, *pagination.PageInfo, error) {
	limit := pag.Limit
	if limit <= 0 {
		limit = 20
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "desc", Allow: map[string]bool{"id": true}}),
		option.WithLimit(limit + 1),
	}
	if pag.Cursor != "" {
		cur, err := pagination.DecodeCursor(pag.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.LT, Value: cur.ID}))
	}

	out, err := s.repo.Find(ctx, &Payout{}, opts...)
	if err != nil {
		return nil, nil, errutil.Internal("failed to list payouts", err)
	}

	info := pagination.BuildPageInfo(out, limit, func(p *Payout) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{ID: p.ID})
		return c
	})
	if len(out) > limit {
		out = out[:limit]
	}

	return out, info, nil
}

type BatchError struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error"`
}

type BatchResult struct {
	Created int          `json:"created"`
	Errors  []BatchError `json:"errors"`
}

// AutoCreateForConfirmedBookings sweeps confirmed bookings that have no
// payout yet and creates one per booking with the configured default split.
// Bookings are processed sequentially and failures are collected instead of
// aborting the sweep, so one stale booking cannot block the rest.
func (s *Service) AutoCreateForConfirmedBookings(ctx context.Context) (*BatchResult, error) {
	confirmed, err := s.bookings.Find(ctx, &booking.Booking{Status: booking.StatusConfirmed})
	if err != nil {
		zap.L().Error("failed to list confirmed bookings", zap.Error(err))
		return nil, errutil.Internal("failed to auto-create payouts", err)
	}

	result := &BatchResult{Errors: []BatchError{}}
	for _, b := range confirmed {
		exist, err := s.repo.FindOne(ctx, &Payout{BookingID: b.ID})
		if err != nil {
			result.Errors = append(result.Errors, BatchError{BookingID: b.ID, Error: err.Error()})
			continue
		}
		if exist != nil {
			// already covered, not an error
			continue
		}

		if _, err := s.Create(ctx, CreateInput{BookingID: b.ID}); err != nil {
			var base errutil.BaseError
			if errors.As(err, &base) && base.Status() == errutil.StatusConflict {
				continue
			}
			result.Errors = append(result.Errors, BatchError{BookingID: b.ID, Error: err.Error()})
			continue
		}
		result.Created++
	}

	zap.L().Info("payout auto-create sweep finished",
		zap.Int("created", result.Created),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// CreateForBooking is the worker-side entry point for a single confirmed
// booking. An existing payout is treated as success so redelivered tasks stay
// quiet.
func (s *Service) CreateForBooking(ctx context.Context, bookingID string) error {
	_, err := s.Create(ctx, CreateInput{BookingID: bookingID})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) && base.Status() == errutil.StatusConflict {
			return nil
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Service) enqueueCreated(p *Payout) {
	if s.asynq == nil {
		return
	}

	t, err := notification.NewPayoutCreatedTask(notification.PayoutCreatedPayload{
		PayoutID:     p.ID,
		BookingID:    p.BookingID,
		HostID:       p.HostID,
		TotalAmount:  p.TotalAmount,
		Currency:     p.Currency,
		FirstAmount:  p.FirstPaymentAmount,
		SecondAmount: p.SecondPaymentAmount,
		FirstDate:    p.FirstPaymentDate,
		SecondDate:   p.SecondPaymentDate,
	})
	if err == nil {
		_, err = s.asynq.Enqueue(t)
	}
	if err != nil {
		zap.L().Error("failed to enqueue payout created task", zap.String("payout_id", p.ID), zap.Error(err))
	}
}

func (s *Service) enqueuePaid(p *Payout, installment Installment, paidAt time.Time) {
	if s.asynq == nil {
		return
	}

	amount := p.FirstPaymentAmount
	dueDate := p.FirstPaymentDate
	if installment == InstallmentSecond {
		amount = p.SecondPaymentAmount
		dueDate = p.SecondPaymentDate
	}

	t, err := notification.NewPayoutPaidTask(notification.PayoutPaidPayload{
		PayoutID:    p.ID,
		BookingID:   p.BookingID,
		HostID:      p.HostID,
		Installment: string(installment),
		Amount:      amount,
		Currency:    p.Currency,
		DueDate:     dueDate,
		PaidAt:      paidAt,
	})
	if err == nil {
		_, err = s.asynq.Enqueue(t)
	}
	if err != nil {
		zap.L().Error("failed to enqueue payout paid task", zap.String("payout_id", p.ID), zap.Error(err))
	}
}

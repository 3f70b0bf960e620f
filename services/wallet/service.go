package wallet

import (
	"context"
	"sort"
	"time"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"
	"unplan-backend/services/booking"
	"unplan-backend/services/payout"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// WalletSummary is recomputed from scratch on every call. totalEarnings sums
// the payout totals while the three buckets sum the split amounts, so the two
// can disagree by the rounding drift each payout carries.
type WalletSummary struct {
	TotalEarnings     int64 `json:"total_earnings"`
	ReceivedAmount    int64 `json:"received_amount"`
	PendingAmount     int64 `json:"pending_amount"`
	UpcomingAmount    int64 `json:"upcoming_amount"`
	TotalBookings     int64 `json:"total_bookings"`
	CompletedBookings int64 `json:"completed_bookings"`
}

// UpcomingInstallment is one not-yet-due half of a payout, flattened for the
// dashboard list.
type UpcomingInstallment struct {
	PayoutID    string    `json:"payout_id"`
	BookingID   string    `json:"booking_id"`
	Installment string    `json:"installment"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	DueDate     time.Time `json:"due_date"`
}

type Service struct {
	db       *gorm.DB
	payouts  repository.Repository[payout.Payout]
	bookings repository.Repository[booking.Booking]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		payouts:  repository.ProvideStore[payout.Payout](p.DB),
		bookings: repository.ProvideStore[booking.Booking](p.DB),
	}
}

// Summarize buckets every installment of the host's payouts around now.
// The payout rows and the two booking counts are independent queries, fanned
// out together; the booking counts are not derived from the payout rows.
func (s *Service) Summarize(ctx context.Context, hostID string, now time.Time) (*WalletSummary, error) {
	var (
		rows      []*payout.Payout
		total     int64
		completed int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.payouts.Find(gctx, &payout.Payout{HostID: hostID})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.bookings.Count(gctx, &booking.Booking{HostID: hostID, PaymentStatus: booking.PaymentPaid})
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.bookings.Count(gctx, &booking.Booking{HostID: hostID, Status: booking.StatusCompleted})
		return err
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("failed to load wallet inputs", zap.String("host_id", hostID), zap.Error(err))
		return nil, errutil.Internal("failed to summarize wallet", err)
	}

	summary := &WalletSummary{
		TotalBookings:     total,
		CompletedBookings: completed,
	}
	for _, p := range rows {
		summary.TotalEarnings += p.TotalAmount
		classify(summary, p.FirstPaymentStatus, p.FirstPaymentAmount, p.FirstPaymentDate, now)
		classify(summary, p.SecondPaymentStatus, p.SecondPaymentAmount, p.SecondPaymentDate, now)
	}

	return summary, nil
}

// classify routes one installment into exactly one bucket. Each installment
// is judged on its own status and due date; the two halves of a payout never
// influence each other.
func classify(summary *WalletSummary, status payout.PayoutStatus, amount int64, due, now time.Time) {
	switch {
	case status == payout.StatusPaid:
		summary.ReceivedAmount += amount
	case !due.After(now):
		summary.PendingAmount += amount
	default:
		summary.UpcomingAmount += amount
	}
}

// ListUpcoming flattens the host's PENDING, not-yet-due installments into one
// entry per half, ascending by due date.
func (s *Service) ListUpcoming(ctx context.Context, hostID string, now time.Time) ([]UpcomingInstallment, error) {
	rows, err := s.payouts.Find(ctx, &payout.Payout{HostID: hostID})
	if err != nil {
		return nil, errutil.Internal("failed to list upcoming installments", err)
	}

	out := []UpcomingInstallment{}
	for _, p := range rows {
		if p.FirstPaymentStatus == payout.StatusPending && p.FirstPaymentDate.After(now) {
			out = append(out, UpcomingInstallment{
				PayoutID:    p.ID,
				BookingID:   p.BookingID,
				Installment: string(payout.InstallmentFirst),
				Amount:      p.FirstPaymentAmount,
				Currency:    p.Currency,
				DueDate:     p.FirstPaymentDate,
			})
		}
		if p.SecondPaymentStatus == payout.StatusPending && p.SecondPaymentDate.After(now) {
			out = append(out, UpcomingInstallment{
				PayoutID:    p.ID,
				BookingID:   p.BookingID,
				Installment: string(payout.InstallmentSecond),
				Amount:      p.SecondPaymentAmount,
				Currency:    p.Currency,
				DueDate:     p.SecondPaymentDate,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})

	return out, nil
}

package payout

import (
	"context"
	"encoding/json"
	"time"

	"unplan-backend/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Worker handles payout tasks consumed from the queue.
type Worker struct {
	service *Service
}

func NewWorker(svc *Service) *Worker {
	return &Worker{service: svc}
}

func RegisterWorker(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(taskname.BookingConfirmed, w.HandleBookingConfirmed)
	mux.HandleFunc(taskname.PayoutAutoCreateRun, w.HandleAutoCreateRun)
}

func (w *Worker) HandleBookingConfirmed(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("invalid booking confirmed payload", zap.Error(err))
		return err
	}

	return w.service.CreateForBooking(ctx, payload.BookingID)
}

func (w *Worker) HandleAutoCreateRun(ctx context.Context, t *asynq.Task) error {
	_, err := w.service.AutoCreateForConfirmedBookings(ctx)
	return err
}

// Scheduler runs the daily auto-create sweep inside the worker process. The
// sweep is the safety net for confirmed bookings whose queue task was lost.
type Scheduler struct {
	service *Service
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{service: svc}
}

// StartScheduler runs the loop on a context that outlives the fx start
// context; the start context carries fx's StartTimeout and expires right
// after boot.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			s.done = make(chan struct{})
			go s.run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.cancel()
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	if s.done != nil {
		defer close(s.done)
	}

	zap.L().Info("[Scheduler] started payout auto-create scheduler")

	for {
		now := time.Now()
		next := nextRunTime(now, 2, 0)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.runDaily(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	start := time.Now()
	zap.L().Info("[Scheduler] running daily payout auto-create sweep")

	result, err := s.service.AutoCreateForConfirmedBookings(ctx)
	if err != nil {
		zap.L().Error("[Scheduler] payout sweep failed", zap.Error(err))
		return
	}

	zap.L().Info("[Scheduler] finished payout sweep",
		zap.Int("created", result.Created),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(start)),
	)
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

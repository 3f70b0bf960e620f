package booking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/taskname"
	"unplan-backend/services/testutil"
	"unplan-backend/services/trip"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestService(t *testing.T) (*Service, *fakeEnqueuer, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &trip.TravelPlan{}, &Booking{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enq := &fakeEnqueuer{}
	svc := NewService(ServiceParams{DB: db, Node: node, Asynq: enq})
	return svc, enq, db
}

func seedPlan(t *testing.T, db *gorm.DB, node *snowflake.Node, status trip.PlanStatus) *trip.TravelPlan {
	t.Helper()

	plan := &trip.TravelPlan{
		ID:              node.Generate().String(),
		HostID:          node.Generate().String(),
		Title:           "Desert trek",
		Slug:            "desert-trek-" + node.Generate().String(),
		StartDate:       time.Now().AddDate(0, 1, 0),
		EndDate:         time.Now().AddDate(0, 1, 4),
		PriceAmount:     5000,
		Currency:        "USD",
		MaxParticipants: 4,
		Status:          status,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func TestCreateBooking(t *testing.T) {
	svc, _, db := newTestService(t)
	plan := seedPlan(t, db, svc.node, trip.StatusActive)

	b, err := svc.Create(context.Background(), "traveler-1", CreateInput{
		TravelPlanID: plan.ID,
		Participants: 3,
	})
	require.NoError(t, err)

	require.Equal(t, plan.HostID, b.HostID)
	require.Equal(t, int64(15000), b.TotalAmount)
	require.Equal(t, StatusPending, b.Status)
	require.Equal(t, PaymentUnpaid, b.PaymentStatus)
	require.NotEmpty(t, b.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, db := newTestService(t)

	_, err := svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: "missing", Participants: 1})
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Status())

	draft := seedPlan(t, db, svc.node, trip.StatusDraft)
	_, err = svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: draft.ID, Participants: 1})
	require.Error(t, err)

	active := seedPlan(t, db, svc.node, trip.StatusActive)
	_, err = svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: active.ID, Participants: 99})
	require.Error(t, err)
}

func TestConfirmEnqueuesPayoutTask(t *testing.T) {
	svc, enq, db := newTestService(t)
	plan := seedPlan(t, db, svc.node, trip.StatusActive)

	b, err := svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: plan.ID, Participants: 1})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), plan.HostID, b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)
	require.Equal(t, PaymentPaid, confirmed.PaymentStatus)

	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.BookingConfirmed, enq.tasks[0].Type())

	var payload struct {
		BookingID string `json:"booking_id"`
	}
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	require.Equal(t, b.ID, payload.BookingID)
}

func TestConfirmSurvivesEnqueueFailure(t *testing.T) {
	svc, enq, db := newTestService(t)
	enq.err = context.DeadlineExceeded
	plan := seedPlan(t, db, svc.node, trip.StatusActive)

	b, err := svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: plan.ID, Participants: 1})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), plan.HostID, b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)
}

func TestConfirmGuards(t *testing.T) {
	svc, _, db := newTestService(t)
	plan := seedPlan(t, db, svc.node, trip.StatusActive)

	b, err := svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: plan.ID, Participants: 1})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "someone-else", b.ID)
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusForbidden, base.Status())

	_, err = svc.Confirm(context.Background(), plan.HostID, b.ID)
	require.NoError(t, err)

	// confirming twice is rejected
	_, err = svc.Confirm(context.Background(), plan.HostID, b.ID)
	require.Error(t, err)
}

func TestCancel(t *testing.T) {
	svc, _, db := newTestService(t)
	plan := seedPlan(t, db, svc.node, trip.StatusActive)

	b, err := svc.Create(context.Background(), "traveler-1", CreateInput{TravelPlanID: plan.ID, Participants: 1})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "someone-else", b.ID)
	require.Error(t, err)

	cancelled, err := svc.Cancel(context.Background(), "traveler-1", b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// a cancelled booking cannot be confirmed
	_, err = svc.Confirm(context.Background(), plan.HostID, b.ID)
	require.Error(t, err)
}

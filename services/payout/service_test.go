package payout

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/db/pagination"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"
	"unplan-backend/services/booking"
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

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Payout.FirstPercent = 20
	cfg.Payout.SecondPercent = 80
	cfg.Payout.FirstLeadDays = 15
	return cfg
}

func newTestService(t *testing.T) (*Service, *fakeEnqueuer, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &trip.TravelPlan{}, &booking.Booking{}, &Payout{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enq := &fakeEnqueuer{}
	svc := NewService(ServiceParams{
		DB:     db,
		Node:   node,
		Config: testConfig(),
		Asynq:  enq,
	})
	return svc, enq, db
}

func seedBooking(t *testing.T, db *gorm.DB, node *snowflake.Node, total int64, tripStart time.Time) *booking.Booking {
	t.Helper()

	plan := &trip.TravelPlan{
		ID:          node.Generate().String(),
		HostID:      node.Generate().String(),
		Title:       "Coastal hike",
		Slug:        "coastal-hike-" + node.Generate().String(),
		StartDate:   tripStart,
		EndDate:     tripStart.AddDate(0, 0, 3),
		PriceAmount: total,
		Currency:    "USD",
		Status:      trip.StatusActive,
	}
	require.NoError(t, db.Create(plan).Error)

	b := &booking.Booking{
		ID:           node.Generate().String(),
		Code:         "BKG-" + node.Generate().String(),
		TravelPlanID: plan.ID,
		TravelerID:   node.Generate().String(),
		HostID:       plan.HostID,
		Participants: 1,
		TotalAmount:  total,
		Currency:     "USD",
		Status:       booking.StatusConfirmed,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestCreateDefaultSplit(t *testing.T) {
	svc, enq, db := newTestService(t)
	tripStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	b := seedBooking(t, db, svc.node, 10000, tripStart)

	p, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)

	require.Equal(t, int64(2000), p.FirstPaymentAmount)
	require.Equal(t, int64(8000), p.SecondPaymentAmount)
	require.Equal(t, 20, p.FirstPaymentPercent)
	require.Equal(t, 80, p.SecondPaymentPercent)
	require.True(t, p.FirstPaymentDate.Equal(tripStart.AddDate(0, 0, -15)))
	require.True(t, p.SecondPaymentDate.Equal(tripStart))
	require.Equal(t, StatusPending, p.FirstPaymentStatus)
	require.Equal(t, StatusPending, p.SecondPaymentStatus)
	require.Equal(t, b.HostID, p.HostID)
	require.Equal(t, b.TotalAmount, p.TotalAmount)

	require.Len(t, enq.tasks, 1)
	require.Equal(t, "payout:created", enq.tasks[0].Type())
}

func TestCreateRoundingDriftBounded(t *testing.T) {
	svc, _, db := newTestService(t)
	tripStart := time.Now().AddDate(0, 1, 0)

	// both halves round up, so the sum overshoots the total by one unit
	b := seedBooking(t, db, svc.node, 10, tripStart)
	first, second := 25, 75

	p, err := svc.Create(context.Background(), CreateInput{
		BookingID:     b.ID,
		FirstPercent:  &first,
		SecondPercent: &second,
	})
	require.NoError(t, err)

	require.Equal(t, int64(3), p.FirstPaymentAmount)
	require.Equal(t, int64(8), p.SecondPaymentAmount)

	drift := p.FirstPaymentAmount + p.SecondPaymentAmount - p.TotalAmount
	require.LessOrEqual(t, drift, int64(1))
	require.GreaterOrEqual(t, drift, int64(-1))
}

func TestCreatePercentValidation(t *testing.T) {
	svc, _, db := newTestService(t)
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	first, second := 30, 60
	_, err := svc.Create(context.Background(), CreateInput{
		BookingID:     b.ID,
		FirstPercent:  &first,
		SecondPercent: &second,
	})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusValidationFailed, base.Status())

	_, err = svc.Create(context.Background(), CreateInput{BookingID: b.ID, FirstPercent: &first})
	require.Error(t, err)
}

func TestCreateBookingNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{BookingID: "missing"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Status())
}

func TestCreateConflict(t *testing.T) {
	svc, _, db := newTestService(t)
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	_, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Status())

	var count int64
	require.NoError(t, db.Model(&Payout{}).Where("booking_id = ?", b.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUniqueIndexBacksConflict(t *testing.T) {
	svc, _, db := newTestService(t)
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	p, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)

	// a second insert that slips past the precheck has to die on the index
	dup := *p
	dup.ID = svc.node.Generate().String()
	dup.Code = "PYT-" + dup.ID
	insertErr := db.Create(&dup).Error
	require.Error(t, insertErr)
	require.True(t, isUniqueViolation(insertErr))
}

func TestMarkPaidLastWriteWins(t *testing.T) {
	svc, enq, db := newTestService(t)
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	created, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)

	p1, err := svc.MarkPaid(context.Background(), created.ID, InstallmentFirst)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, p1.FirstPaymentStatus)
	require.NotNil(t, p1.FirstPaymentPaidAt)
	require.Equal(t, StatusPending, p1.SecondPaymentStatus)
	require.Nil(t, p1.SecondPaymentPaidAt)

	time.Sleep(10 * time.Millisecond)

	p2, err := svc.MarkPaid(context.Background(), created.ID, InstallmentFirst)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, p2.FirstPaymentStatus)
	require.True(t, p2.FirstPaymentPaidAt.After(*p1.FirstPaymentPaidAt))
	require.Equal(t, StatusPending, p2.SecondPaymentStatus)

	// created + two paid notifications
	require.Len(t, enq.tasks, 3)
	require.Equal(t, "payout:first_paid", enq.tasks[1].Type())
	require.Equal(t, "payout:first_paid", enq.tasks[2].Type())
}

func TestMarkPaidInvalidInstallment(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.MarkPaid(context.Background(), "any", Installment("third"))
	require.Error(t, err)
}

func TestUpdateSparsePatch(t *testing.T) {
	svc, _, db := newTestService(t)
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	created, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)

	first := 30
	notes := "renegotiated split"
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{
		FirstPercent: &first,
		Notes:        &notes,
	})
	require.NoError(t, err)

	require.Equal(t, 30, updated.FirstPaymentPercent)
	require.Equal(t, int64(3000), updated.FirstPaymentAmount)
	// the untouched half keeps its original percent and amount
	require.Equal(t, 80, updated.SecondPaymentPercent)
	require.Equal(t, int64(8000), updated.SecondPaymentAmount)
	require.Equal(t, notes, updated.Notes)
	require.True(t, updated.FirstPaymentDate.Equal(created.FirstPaymentDate))
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	notes := "x"
	_, err := svc.Update(context.Background(), "missing", UpdateInput{Notes: &notes})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Status())
}

func TestAutoCreateForConfirmedBookings(t *testing.T) {
	svc, _, db := newTestService(t)
	tripStart := time.Now().AddDate(0, 1, 0)

	covered := seedBooking(t, db, svc.node, 10000, tripStart)
	_, err := svc.Create(context.Background(), CreateInput{BookingID: covered.ID})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		seedBooking(t, db, svc.node, 5000, tripStart)
	}

	// a confirmed booking whose plan row is gone cannot be priced
	stale := &booking.Booking{
		ID:           svc.node.Generate().String(),
		Code:         "BKG-stale",
		TravelPlanID: "deleted-plan",
		TravelerID:   "t1",
		HostID:       "h1",
		Participants: 1,
		TotalAmount:  5000,
		Status:       booking.StatusConfirmed,
	}
	require.NoError(t, db.Create(stale).Error)

	result, err := svc.AutoCreateForConfirmedBookings(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, stale.ID, result.Errors[0].BookingID)

	var count int64
	require.NoError(t, db.Model(&Payout{}).Count(&count).Error)
	require.Equal(t, int64(4), count)
}

func TestCreateSurvivesEnqueueFailure(t *testing.T) {
	svc, enq, db := newTestService(t)
	enq.err = context.DeadlineExceeded
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	p, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)
	require.NotNil(t, p)

	var count int64
	require.NoError(t, db.Model(&Payout{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

// vanishingRepo deletes the row right after updating it, standing in for a
// concurrent delete between the update and the reload.
type vanishingRepo struct {
	repository.Repository[Payout]
	db *gorm.DB
}

func (r *vanishingRepo) Update(ctx context.Context, resourceID string, resource any) error {
	if err := r.Repository.Update(ctx, resourceID, resource); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", resourceID).Delete(&Payout{}).Error
}

func TestMarkPaidRowDeletedMidFlight(t *testing.T) {
	svc, enq, db := newTestService(t)
	b := seedBooking(t, db, svc.node, 10000, time.Now().AddDate(0, 1, 0))

	p, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
	require.NoError(t, err)
	enq.tasks = nil

	svc.repo = &vanishingRepo{Repository: svc.repo, db: db}

	_, err = svc.MarkPaid(context.Background(), p.ID, InstallmentFirst)
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Status())
	require.Empty(t, enq.tasks)
}

func TestListPagination(t *testing.T) {
	svc, _, db := newTestService(t)
	tripStart := time.Now().AddDate(0, 1, 0)

	for i := 0; i < 3; i++ {
		b := seedBooking(t, db, svc.node, 5000, tripStart)
		_, err := svc.Create(context.Background(), CreateInput{BookingID: b.ID})
		require.NoError(t, err)
	}

	page, info, err := svc.List(context.Background(), pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextCursor)

	rest, info, err := svc.List(context.Background(), pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, info.HasMore)

	_, _, err = svc.List(context.Background(), pagination.Pagination{Cursor: "garbage"})
	require.Error(t, err)
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)

	next := nextRunTime(now, 2, 0)
	require.Equal(t, time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC), next)

	next = nextRunTime(now, 4, 30)
	require.Equal(t, time.Date(2026, 8, 31, 4, 30, 0, 0, time.UTC), next)
}

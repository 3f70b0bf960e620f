package trip

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unplan-backend/pkg/db/pagination"
	"unplan-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &TravelPlan{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func validInput() CreateInput {
	start := time.Now().AddDate(0, 2, 0)
	return CreateInput{
		Title:       "Island Hopping Week",
		Country:     "ID",
		City:        "Labuan Bajo",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 7),
		PriceAmount: 250000,
	}
}

func TestCreateSlugsTitle(t *testing.T) {
	svc := newTestService(t)

	plan, err := svc.Create(context.Background(), "host-1", validInput())
	require.NoError(t, err)
	require.Equal(t, "island-hopping-week", plan.Slug)
	require.Equal(t, StatusDraft, plan.Status)
	require.Equal(t, "USD", plan.Currency)
	require.Equal(t, 1, plan.MaxParticipants)

	// a second plan with the same title gets a suffixed slug
	again, err := svc.Create(context.Background(), "host-1", validInput())
	require.NoError(t, err)
	require.NotEqual(t, plan.Slug, again.Slug)
	require.Contains(t, again.Slug, "island-hopping-week-")
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.EndDate = in.StartDate.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), "host-1", in)
	require.Error(t, err)
}

func TestUpdateAndListing(t *testing.T) {
	svc := newTestService(t)

	plan, err := svc.Create(context.Background(), "host-1", validInput())
	require.NoError(t, err)

	active := StatusActive
	updated, err := svc.Update(context.Background(), "host-1", plan.ID, UpdateInput{Status: &active})
	require.NoError(t, err)
	require.Equal(t, StatusActive, updated.Status)

	_, err = svc.Update(context.Background(), "someone-else", plan.ID, UpdateInput{Status: &active})
	require.Error(t, err)

	listed, info, err := svc.ListActive(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.False(t, info.HasMore)

	bySlug, err := svc.GetBySlug(context.Background(), plan.Slug)
	require.NoError(t, err)
	require.Equal(t, plan.ID, bySlug.ID)

	_, err = svc.GetBySlug(context.Background(), "nope")
	require.Error(t, err)
}

func TestListActivePagination(t *testing.T) {
	svc := newTestService(t)
	active := StatusActive

	for i := 0; i < 3; i++ {
		plan, err := svc.Create(context.Background(), "host-1", validInput())
		require.NoError(t, err)
		_, err = svc.Update(context.Background(), "host-1", plan.ID, UpdateInput{Status: &active})
		require.NoError(t, err)
	}

	first, info, err := svc.ListActive(context.Background(), pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextCursor)

	rest, info, err := svc.ListActive(context.Background(), pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, info.HasMore)
	require.NotEqual(t, first[0].ID, rest[0].ID)
	require.NotEqual(t, first[1].ID, rest[0].ID)

	_, _, err = svc.ListActive(context.Background(), pagination.Pagination{Cursor: "%%%not-base64%%%"})
	require.Error(t, err)
}

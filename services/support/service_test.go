package support

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/taskname"
	"unplan-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestService(t *testing.T) (*Service, *fakeEnqueuer, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &SupportTicket{}, &TicketReply{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enq := &fakeEnqueuer{}
	svc := NewService(ServiceParams{DB: db, Node: node, Config: &config.Config{}, Asynq: enq})
	return svc, enq, db
}

func TestOpenTicket(t *testing.T) {
	svc, _, _ := newTestService(t)

	ticket, err := svc.Open(context.Background(), "user-1", OpenInput{
		Subject: "double charge",
		Body:    "I was charged twice for the same booking",
	}, nil)
	require.NoError(t, err)

	require.Equal(t, StatusOpen, ticket.Status)
	require.Equal(t, PriorityNormal, ticket.Priority)
	require.NotEmpty(t, ticket.Code)
	require.Empty(t, ticket.AttachmentURL)
}

func TestTicketVisibility(t *testing.T) {
	svc, _, _ := newTestService(t)

	ticket, err := svc.Open(context.Background(), "user-1", OpenInput{Subject: "s", Body: "b"}, nil)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "user-2", false, ticket.ID)
	require.Error(t, err)

	got, err := svc.Get(context.Background(), "user-2", true, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, got.ID)

	mine, err := svc.List(context.Background(), "user-1", false)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	others, err := svc.List(context.Background(), "user-2", false)
	require.NoError(t, err)
	require.Empty(t, others)
}

func TestReplyNotifiesRequester(t *testing.T) {
	svc, enq, _ := newTestService(t)

	ticket, err := svc.Open(context.Background(), "user-1", OpenInput{Subject: "s", Body: "b"}, nil)
	require.NoError(t, err)

	// the requester replying to their own ticket stays quiet
	_, err = svc.Reply(context.Background(), "user-1", false, ticket.ID, "any update?")
	require.NoError(t, err)
	require.Empty(t, enq.tasks)

	_, err = svc.Reply(context.Background(), "admin-1", true, ticket.ID, "looking into it")
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.TicketReplied, enq.tasks[0].Type())

	replies, err := svc.ListReplies(context.Background(), "user-1", false, ticket.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
}

func TestStatusTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)

	ticket, err := svc.Open(context.Background(), "user-1", OpenInput{Subject: "s", Body: "b"}, nil)
	require.NoError(t, err)

	moved, err := svc.Transition(context.Background(), ticket.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, moved.Status)

	moved, err = svc.Transition(context.Background(), ticket.ID, StatusResolved)
	require.NoError(t, err)
	require.Equal(t, StatusResolved, moved.Status)

	// resolved can be reopened but not jumped back to open
	_, err = svc.Transition(context.Background(), ticket.ID, StatusOpen)
	require.Error(t, err)

	moved, err = svc.Transition(context.Background(), ticket.ID, StatusClosed)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, moved.Status)

	// closed is terminal
	_, err = svc.Transition(context.Background(), ticket.ID, StatusInProgress)
	require.Error(t, err)

	_, err = svc.Reply(context.Background(), "user-1", false, ticket.ID, "reopening?")
	require.Error(t, err)
}

package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"unplan-backend/pkg/taskname"
)

func TestNewPayoutCreatedTask(t *testing.T) {
	payload := PayoutCreatedPayload{
		PayoutID:     "p1",
		BookingID:    "b1",
		HostID:       "h1",
		TotalAmount:  10000,
		Currency:     "USD",
		FirstAmount:  2000,
		SecondAmount: 8000,
		FirstDate:    time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		SecondDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	task, err := NewPayoutCreatedTask(payload)
	require.NoError(t, err)
	require.Equal(t, taskname.PayoutCreated, task.Type())

	var decoded PayoutCreatedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, payload, decoded)
}

func TestNewPayoutPaidTaskPicksName(t *testing.T) {
	first, err := NewPayoutPaidTask(PayoutPaidPayload{PayoutID: "p1", Installment: "first"})
	require.NoError(t, err)
	require.Equal(t, taskname.PayoutFirstPaid, first.Type())

	second, err := NewPayoutPaidTask(PayoutPaidPayload{PayoutID: "p1", Installment: "second"})
	require.NoError(t, err)
	require.Equal(t, taskname.PayoutSecondPaid, second.Type())
}

func TestNewTicketRepliedTask(t *testing.T) {
	task, err := NewTicketRepliedTask(TicketRepliedPayload{
		TicketID:    "t1",
		TicketCode:  "TCK-260831-1",
		RequesterID: "u1",
		AuthorID:    "admin",
		Body:        "we are on it",
	})
	require.NoError(t, err)
	require.Equal(t, taskname.TicketReplied, task.Type())

	var decoded TicketRepliedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, "TCK-260831-1", decoded.TicketCode)
}

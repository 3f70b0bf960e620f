package taskname

const (
	// Payout tasks
	PayoutCreated       = "payout:created"
	PayoutFirstPaid     = "payout:first_paid"
	PayoutSecondPaid    = "payout:second_paid"
	PayoutAutoCreateRun = "payout:autocreate:run"

	// Booking tasks
	BookingConfirmed = "booking:confirmed"

	// Support tasks
	TicketReplied = "ticket:replied"
)

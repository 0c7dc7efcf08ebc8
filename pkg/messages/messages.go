package messages

const (
	// ErrUserErrorProcessing is the message sent to a user when their
	// interaction could not be processed.
	ErrUserErrorProcessing = "Something went wrong processing your request. Please try again."

	// ErrUserNoTicketHere is the message sent when a ticket command is used
	// outside a ticket thread.
	ErrUserNoTicketHere = "This channel is not linked to a ticket."

	// ErrUserRateLimited is the message sent when a user has created too many
	// tickets within the window. It takes the reset time, formatted as a
	// relative timestamp.
	ErrUserRateLimited = "You have opened too many tickets recently. Please try again %s."

	// TicketCreated is the message sent into a fresh ticket thread.
	TicketCreated = `Your ticket has been created.
Please provide any additional info you deem relevant to help us answer faster.`

	// TicketAutoCloseWarning is posted into a ticket thread that is inside the
	// inactivity warning band.
	TicketAutoCloseWarning = "This ticket has been inactive for a while and will be closed automatically soon. Reply to keep it open."

	// TicketAutoClosed is posted into a ticket thread when it is closed for
	// inactivity.
	TicketAutoClosed = "This ticket has been closed due to inactivity."
)

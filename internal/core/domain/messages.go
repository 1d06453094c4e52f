package domain

// Messages reported to callers. They are part of the public contract.
const (
	MsgNotAuthorizedCreateEvent   = "Not authorized to create event"
	MsgNotAuthorizedUpdateEvent   = "Not authorized to update event"
	MsgNotAuthorizedCancelEvent   = "Not authorized to cancel event"
	MsgNotAuthorizedFinishEvent   = "Not authorized to finish event"
	MsgNotAuthorizedBookTickets   = "Not authorized to book tickets"
	MsgNotAuthorizedCancelTickets = "Not authorized to cancel tickets"
	MsgNotAuthorizedRefundTickets = "Not authorized to refund tickets"
	MsgNotAuthorizedViewTickets   = "Not authorized to view tickets"

	MsgEventInvalid          = "Event is invalid"
	MsgUserInvalid           = "User is invalid"
	MsgEventNotActive        = "Event is not active"
	MsgEventNotCancelable    = "Event must be in active state to cancel"
	MsgEventNotUpdatable     = "Event must be in active state to update"
	MsgTicketCount           = "Ticket count must be a positive integer"
	MsgNotEnoughTickets      = "Not enough available tickets"
	MsgCapacityBelowSold     = "Total capacity cannot be less than tickets already sold"
	MsgCapacityExceedsTotal  = "Available capacity cannot be greater than total capacity"
	MsgTicketsWrongEvent     = "Some tickets do not belong to the specified event"
	MsgTicketsWrongUser      = "Some tickets do not belong to the user"
	MsgTicketsAlreadyCancel  = "Some tickets are already cancelled"
	MsgNoTickets             = "No tickets specified"
	MsgMissingEventParams    = "Missing event parameters: "
	MsgNameTaken             = "Name has already been taken"
	MsgStartTimeInPast       = "Start time must be in the future"
	MsgEndTimeInPast         = "End time must be in the future"
	MsgEndTimeBeforeStart    = "End time must be after start time"
	MsgSomethingWentWrong    = "Something went wrong"
	MsgBookedAtMissing       = "Booked at must be present when ticket is booked"
	MsgCancelledAtWhenBooked = "Cancelled at must not be set when ticket is booked"
	MsgCancelledAtMissing    = "Cancelled at must be present when ticket is cancelled"
	MsgPendingTimestamps     = "Timestamps should not be set for pending tickets"
	MsgRefundedTimestamps    = "Refunded tickets must have been booked and not cancelled"
)

package booking

type BookingStatus string

const (
	BookingStatusPending      BookingStatus = "pending"
	BookingStatusConfirmed    BookingStatus = "confirmed"
	BookingStatusEnRoute      BookingStatus = "en_route"
	BookingStatusPickedUp     BookingStatus = "picked_up"
	BookingStatusTransporting BookingStatus = "transporting"
	BookingStatusCompleted    BookingStatus = "completed"
	BookingStatusCancelled    BookingStatus = "cancelled"
)

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusEnRoute,
		BookingStatusPickedUp, BookingStatusTransporting, BookingStatusCompleted, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// IsActiveTransport returns true while a driver is actively working the booking
func (bs BookingStatus) IsActiveTransport() bool {
	return bs == BookingStatusEnRoute || bs == BookingStatusPickedUp || bs == BookingStatusTransporting
}

// IsTerminal returns true if the booking reached a final state
func (bs BookingStatus) IsTerminal() bool {
	return bs == BookingStatusCompleted || bs == BookingStatusCancelled
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusEnRoute,
		BookingStatusPickedUp,
		BookingStatusTransporting,
		BookingStatusCompleted,
		BookingStatusCancelled,
	}
}

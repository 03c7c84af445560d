package driver

type Status string

const (
	StatusOffline      Status = "offline"
	StatusAvailable    Status = "available"
	StatusAssigned     Status = "assigned"
	StatusEnRoute      Status = "en_route"
	StatusOnSite       Status = "on_site"
	StatusTransporting Status = "transporting"
)

// allowedTransitions is the directed graph of driver-initiated status
// changes. "assigned" is reachable only through an admin dispatch action and
// is therefore absent as a target here.
var allowedTransitions = map[Status][]Status{
	StatusOffline:      {StatusAvailable},
	StatusAvailable:    {StatusOffline},
	StatusAssigned:     {StatusEnRoute, StatusAvailable, StatusOffline},
	StatusEnRoute:      {StatusOnSite, StatusAvailable},
	StatusOnSite:       {StatusTransporting, StatusAvailable},
	StatusTransporting: {StatusAvailable},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOffline, StatusAvailable, StatusAssigned, StatusEnRoute, StatusOnSite, StatusTransporting:
		return true
	default:
		return false
	}
}

// IsOnTransport returns true while the driver is actively working a booking
func (s Status) IsOnTransport() bool {
	return s == StatusEnRoute || s == StatusOnSite || s == StatusTransporting
}

// CanTransition reports whether a driver may move from one status to another
// on their own. Same-status updates are allowed (location refreshes).
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// GetAllDriverStatuses returns all valid driver statuses
func GetAllDriverStatuses() []Status {
	return []Status{
		StatusOffline,
		StatusAvailable,
		StatusAssigned,
		StatusEnRoute,
		StatusOnSite,
		StatusTransporting,
	}
}

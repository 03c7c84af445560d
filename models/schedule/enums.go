package schedule

type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

// Helper methods for ScheduleStatus
func (ss ScheduleStatus) String() string {
	return string(ss)
}

func (ss ScheduleStatus) IsValid() bool {
	switch ss {
	case ScheduleStatusScheduled, ScheduleStatusInProgress, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	default:
		return false
	}
}

// BlocksTimeline returns true if the schedule still occupies its interval for
// conflict purposes
func (ss ScheduleStatus) BlocksTimeline() bool {
	return ss == ScheduleStatusScheduled || ss == ScheduleStatusInProgress
}

// CanStart returns true if the schedule can transition to in_progress
func (ss ScheduleStatus) CanStart() bool {
	return ss == ScheduleStatusScheduled
}

// CanComplete returns true if the schedule can transition to completed
func (ss ScheduleStatus) CanComplete() bool {
	return ss == ScheduleStatusScheduled || ss == ScheduleStatusInProgress
}

// CanCancel returns true if the schedule can still be soft-cancelled
func (ss ScheduleStatus) CanCancel() bool {
	return ss == ScheduleStatusScheduled || ss == ScheduleStatusInProgress
}

// GetAllScheduleStatuses returns all valid schedule statuses
func GetAllScheduleStatuses() []ScheduleStatus {
	return []ScheduleStatus{
		ScheduleStatusScheduled,
		ScheduleStatusInProgress,
		ScheduleStatusCompleted,
		ScheduleStatusCancelled,
	}
}

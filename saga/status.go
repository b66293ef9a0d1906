package saga

// Status of a saga instance
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
	StatusCompensating Status = "COMPENSATING"
	StatusCompensated  Status = "COMPENSATED"
)

// Terminal reports whether no more events are expected for the saga
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCompensated
}

func (s Status) Valid() bool {
	switch s {
	case StatusStarted, StatusInProgress, StatusCompleted, StatusFailed, StatusCompensating, StatusCompensated:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

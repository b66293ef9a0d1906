package saga

import (
	"time"
)

// Instance is the projected state of one saga
type Instance struct {
	SagaID           string    `json:"sagaId"`
	UserID           int64     `json:"userId"`
	CourseID         int64     `json:"courseId"`
	PaymentID        string    `json:"paymentId,omitempty"`
	EnrollmentID     string    `json:"enrollmentId,omitempty"`
	Status           Status    `json:"status"`
	CompletedSteps   []string  `json:"completedSteps"`
	CompensatedSteps []string  `json:"compensatedSteps"`
	FailedStep       string    `json:"failedStep,omitempty"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	LastSequence     uint64    `json:"lastSequence"`
	StartedAt        time.Time `json:"startedAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func NewInstance(sagaID string, userID, courseID int64, startedAt time.Time) *Instance {
	return &Instance{
		SagaID:           sagaID,
		UserID:           userID,
		CourseID:         courseID,
		Status:           StatusStarted,
		CompletedSteps:   make([]string, 0),
		CompensatedSteps: make([]string, 0),
		StartedAt:        startedAt,
		UpdatedAt:        startedAt,
	}
}

// AddCompletedStep appends step once, a repeated step is ignored
func (i *Instance) AddCompletedStep(step string) {
	i.CompletedSteps = appendUnique(i.CompletedSteps, step)
}

func (i *Instance) AddCompensatedStep(step string) {
	i.CompensatedSteps = appendUnique(i.CompensatedSteps, step)
}

// Clone returns a copy that shares no slices with i
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}

	c := *i
	c.CompletedSteps = append(make([]string, 0, len(i.CompletedSteps)), i.CompletedSteps...)
	c.CompensatedSteps = append(make([]string, 0, len(i.CompensatedSteps)), i.CompensatedSteps...)

	return &c
}

func appendUnique(steps []string, step string) []string {
	for _, s := range steps {
		if s == step {
			return steps
		}
	}
	return append(steps, step)
}

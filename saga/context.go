package saga

import (
	"sync"
)

// Context is the state shared by the steps of one saga. Steps write ids here so later steps and compensations can use them.
type Context struct {
	SagaID       string
	UserID       int64
	CourseID     int64
	PaymentID    string
	EnrollmentID string

	mu             sync.RWMutex
	values         map[string]interface{}
	completedSteps []string
}

func NewContext(sagaID string, userID, courseID int64) *Context {
	return &Context{
		SagaID:   sagaID,
		UserID:   userID,
		CourseID: courseID,
		values:   make(map[string]interface{}),
	}
}

// Set stores a value for later steps, e.g. course price or a flag that an effect has landed
func (c *Context) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	c.values[key] = val
}

func (c *Context) Value(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.values[key]
	return val, ok
}

// Flag returns a bool value, false if it was never set
func (c *Context) Flag(key string) bool {
	val, _ := c.Value(key)
	b, _ := val.(bool)
	return b
}

// CompletedSteps returns names of steps completed so far in execution order
func (c *Context) CompletedSteps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.completedSteps...)
}

func (c *Context) markCompleted(step string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.completedSteps = appendUnique(c.completedSteps, step)
}

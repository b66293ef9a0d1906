package execution

// Executor is a callback that will be called on received message with context.
// It should return an error only if a retry can help, business failures are reported with a failure event.
type Executor func(execCtx MessageExecutionCtx) error

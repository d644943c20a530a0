package port

// Future is the handle of a task submitted to an Executor.
type Future interface {
	// Done is closed when the task has returned
	Done() <-chan struct{}

	// Wait blocks until the task returns and yields its error
	Wait() error
}

// Executor runs zero-argument tasks in the background. Its lifecycle is
// owned by whoever constructed it.
type Executor interface {
	// Submit schedules task and returns its Future. Submitting to a
	// stopped executor returns a Future that fails immediately.
	Submit(task func() error) Future
}

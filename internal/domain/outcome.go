package domain

// Outcome is the result of one orchestrated operation.
type Outcome[T any] struct {
	// Value is the produced value, zero on failure
	Value T

	// Err is the last error seen, nil on success
	Err error

	// Attempts is how many times the attempt function ran
	Attempts int
}

// Ok returns true if the operation succeeded
func (o Outcome[T]) Ok() bool {
	return o.Err == nil
}

// Unwrap returns the value and error pair
func (o Outcome[T]) Unwrap() (T, error) {
	return o.Value, o.Err
}

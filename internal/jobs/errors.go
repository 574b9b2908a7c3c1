package jobs

import "errors"

// Admission errors are returned synchronously from Submit; no job record is
// created and no work is dispatched.
var (
	ErrCapacityExceeded     = errors.New("too many active jobs")
	ErrInvalidConfiguration = errors.New("invalid job configuration")
	ErrEmptyTargetSet       = errors.New("configuration resolves to no targets")
)

// ErrInvalidState is returned when an operation requires a non-terminal job,
// such as cancelling a job that already completed.
var ErrInvalidState = errors.New("job is in a terminal state")

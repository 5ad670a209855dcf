package roster

import "errors"

// The messages of these errors are returned to HTTP callers verbatim, so they
// must keep containing the phrases clients match on.
var (
	// ErrActivityNotFound is returned when the named activity does not exist.
	ErrActivityNotFound = errors.New("Activity not found")

	// ErrAlreadySignedUp is returned when signing up an email that is already on the roster.
	ErrAlreadySignedUp = errors.New("Student is already signed up for this activity")

	// ErrNotSignedUp is returned when unregistering an email that is not on the roster.
	ErrNotSignedUp = errors.New("Student is not signed up for this activity")

	// ErrActivityFull is returned by a Store with capacity enforcement when the
	// roster has reached max_participants.
	ErrActivityFull = errors.New("Activity is full")
)

// IsNotFound reports whether err means the activity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrActivityNotFound)
}

// IsInvalidOperation reports whether err is a rejected roster change on an
// existing activity.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrAlreadySignedUp) ||
		errors.Is(err, ErrNotSignedUp) ||
		errors.Is(err, ErrActivityFull)
}

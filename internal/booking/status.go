package booking

// Transition returns the status a booking moves to when its owner approves
// (approved=true) or rejects it. Repeating the current decision is an error;
// reversing an earlier decision is allowed in both directions.
func Transition(current Status, approved bool) (Status, error) {
	switch {
	case approved && current == StatusApproved:
		return current, ErrAlreadyApproved
	case !approved && current == StatusRejected:
		return current, ErrAlreadyRejected
	case approved:
		return StatusApproved, nil
	default:
		return StatusRejected, nil
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

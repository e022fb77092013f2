package recurrence

import (
	"fmt"
	"time"
)

// Supported periodicity values.
const (
	Daily   = "DAILY"
	Weekly  = "WEEKLY"
	Monthly = "MONTHLY"
	Yearly  = "YEARLY"
)

// ErrUnknownPeriodicity reports a periodicity value outside the supported
// set. This is a data-integrity error and is never recovered silently.
var ErrUnknownPeriodicity = fmt.Errorf("unknown periodicity")

// ValidPeriodicity reports whether p is one of the supported values.
func ValidPeriodicity(p string) bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Advance returns t plus exactly one period. Month and year advancement use
// time.Time.AddDate, which normalizes day-of-month overflow (Jan 31 + 1 month
// = Mar 2/3); ElapsedPeriods counts with the same arithmetic so the two stay
// consistent.
func Advance(t time.Time, periodicity string) (time.Time, error) {
	switch periodicity {
	case Daily:
		return t.AddDate(0, 0, 1), nil
	case Weekly:
		return t.AddDate(0, 0, 7), nil
	case Monthly:
		return t.AddDate(0, 1, 0), nil
	case Yearly:
		return t.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPeriodicity, periodicity)
	}
}

// ElapsedPeriods returns the number of whole periods between anchor and
// target, never negative. Advancing anchor that many times does not overshoot
// target, which makes installmentNumber = ElapsedPeriods(...)+1 line up with
// the dates the catch-up loop visits.
func ElapsedPeriods(anchor, target time.Time, periodicity string) (int, error) {
	if !ValidPeriodicity(periodicity) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPeriodicity, periodicity)
	}
	if !target.After(anchor) {
		return 0, nil
	}

	// Step with the same AddDate arithmetic Advance uses and count the
	// steps. A fixed-duration division would drift from Advance around DST
	// transitions and month-length changes.
	n := 0
	cur := anchor
	for {
		next, err := Advance(cur, periodicity)
		if err != nil {
			return 0, err
		}
		if next.After(target) {
			return n, nil
		}
		cur = next
		n++
	}
}

package payables

import "time"

// AgingSeverity buckets invoice aging for presentation and filtering.
type AgingSeverity string

const (
	AgingSeverityLow    AgingSeverity = "low"    // 30 days or less
	AgingSeverityMedium AgingSeverity = "medium" // 31 to 60 days
	AgingSeverityHigh   AgingSeverity = "high"   // over 60 days
)

// String returns the string representation of AgingSeverity
func (s AgingSeverity) String() string {
	return string(s)
}

// CriticalAgingDays is the threshold above which an invoice is considered
// critically aged by the grouping suggestions.
const CriticalAgingDays = 60

// AgingDays returns the whole-day difference between the reference date and
// the "until" instant. The value is signed: a reference date in the future
// yields a negative count rather than an error.
func AgingDays(reference, until time.Time) int {
	ref := truncateToDay(reference)
	end := truncateToDay(until)
	return int(end.Sub(ref).Hours() / 24)
}

// SeverityForDays maps an aging day count onto a severity bucket. Negative
// counts (future-dated invoices) fall into the low bucket.
func SeverityForDays(days int) AgingSeverity {
	switch {
	case days > 60:
		return AgingSeverityHigh
	case days > 30:
		return AgingSeverityMedium
	default:
		return AgingSeverityLow
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

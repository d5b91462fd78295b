package view

import "time"

// Period is a date range preset cycled through with a single key.
type Period int

const (
	PeriodAll Period = iota
	PeriodThisMonth
	PeriodLastMonth
	PeriodLast90Days
	periodCount
)

func (p Period) String() string {
	switch p {
	case PeriodAll:
		return "All Time"
	case PeriodThisMonth:
		return "This Month"
	case PeriodLastMonth:
		return "Last Month"
	case PeriodLast90Days:
		return "Last 90 Days"
	}

	return "Unknown"
}

func (p Period) Next() Period {
	return (p + 1) % periodCount
}

// Range returns the bounds of p relative to now. Both are nil for PeriodAll.
func (p Period) Range(now time.Time) (*time.Time, *time.Time) {
	var start, end time.Time

	switch p {
	case PeriodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	case PeriodLastMonth:
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	case PeriodLast90Days:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		start = day.AddDate(0, 0, -89)
		end = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	default:
		return nil, nil
	}

	return &start, &end
}

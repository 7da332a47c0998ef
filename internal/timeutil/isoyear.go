package timeutil

import "time"

// ISOYearStart returns the DateTime of Monday of ISO week 1 of year y.
// ISO week 1 is, by definition, the week containing the year's first
// Thursday — equivalently the week containing January 4th.
func ISOYearStart(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return jan4.AddDate(0, 0, -(weekday - 1))
}

// SimilarDateTime re-projects t onto the same ISO week/weekday/time-of-day
// but within the given ISO year — the year-preserving shift rotating
// TimeVectors use to align a query time with their scenario window.
func SimilarDateTime(t time.Time, isoYear int) time.Time {
	_, week := t.ISOWeek()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := ISOYearStart(isoYear)
	daysIn := (week-1)*7 + (weekday - 1)
	day := start.AddDate(0, 0, daysIn)
	h, m, s := t.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, t.Nanosecond(), t.Location())
}

// Equal reports whether two ProbTime instants are identical in every
// component that participates in evaluation — used by Shrinkable/Shiftable
// horizons to detect "probtime did not advance" on a repeated update!.
func (p ProbTime) Equal(other ProbTime) bool {
	if !p.DataTime.Equal(other.DataTime) || !p.ScenarioTime.Equal(other.ScenarioTime) {
		return false
	}
	if p.hasPhasein != other.hasPhasein {
		return false
	}
	if p.hasPhasein && (!p.ScenarioTime1.Equal(other.ScenarioTime1) || !p.ScenarioTime2.Equal(other.ScenarioTime2)) {
		return false
	}
	if p.hasPrognosis != other.hasPrognosis {
		return false
	}
	if p.hasPrognosis && !p.PrognosisDataTime.Equal(other.PrognosisDataTime) {
		return false
	}
	return true
}

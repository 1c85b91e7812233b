package invoice

import "time"

// ReferenceMonthFor returns the first day of the month whose invoice a
// purchase belongs to. Product rule: purchases made in month M are billed
// on the invoice of month M+1, regardless of where the purchase falls
// relative to the card's closing day. closingDay is accepted for call-site
// symmetry with ClosingAndDueDates but does not change the outcome; making
// the rule closing-day-aware is a pending product decision, not a code one.
func ReferenceMonthFor(purchaseDate time.Time, closingDay int) time.Time {
	_ = closingDay
	y, m, _ := purchaseDate.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}

// ClosingAndDueDates derives an invoice's closing and due dates from the
// card configuration. The closing date is closingDay within the reference
// month; the due date is dueDay within the following month. Day numbers
// beyond the end of the target month clamp to its last day, so a day-31
// config lands on Feb 28/29 rather than rolling over.
func ClosingAndDueDates(referenceMonth time.Time, closingDay, dueDay int) (time.Time, time.Time) {
	y, m, _ := referenceMonth.Date()
	closing := dateClamped(y, m, closingDay)
	due := dateClamped(y, m+1, dueDay)
	return closing, due
}

// dateClamped builds a UTC date with the day clamped to [1, last day of month].
func dateClamped(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := daysIn(year, month)
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in the given month. The month may be
// outside [1,12]; time.Date normalizes it.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

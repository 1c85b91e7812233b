package transaction

import (
	"time"

	"fatura/internal/domain/money"
)

// Frequency is the spacing between installments of one purchase.
type Frequency string

// Supported repetition frequencies
const (
	FrequencyWeekly       Frequency = "weekly"
	FrequencyMonthly      Frequency = "monthly"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencySemiannually Frequency = "semiannually"
	FrequencyAnnually     Frequency = "annually"
)

// IsValidFrequency checks if the provided frequency is supported
func IsValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencySemiannually, FrequencyAnnually:
		return true
	}
	return false
}

// Installment is one (date, amount) pair of an expanded plan. Amounts are
// positive here; the charge writer applies the expense sign.
type Installment struct {
	Date   time.Time
	Amount money.Cents
}

// ExpandInstallments splits a purchase into count installments starting at
// start, spaced by freq.
//
// When amountIsTotal is true the entered amount is the whole purchase:
// each installment gets the half-up rounded share and the last one absorbs
// the rounding remainder, so the parts always sum back to total exactly.
// When false, every installment is the amount as given. count <= 1 yields
// a single pair either way.
func ExpandInstallments(total money.Cents, count int, start time.Time, freq Frequency, amountIsTotal bool) []Installment {
	total = total.Abs()
	if count <= 1 {
		return []Installment{{Date: start, Amount: total}}
	}

	per := total
	if amountIsTotal {
		per = total.DivideRound(count)
	}

	installments := make([]Installment, count)
	for i := 0; i < count; i++ {
		amount := per
		if amountIsTotal && i == count-1 {
			amount = total - per*money.Cents(count-1)
		}
		installments[i] = Installment{
			Date:   installmentDate(start, i, freq),
			Amount: amount,
		}
	}
	return installments
}

// installmentDate returns the date of installment index (0-based) from the
// start date. Month and year steps clamp to the last valid day of the
// target month instead of overflowing, matching the invoice date rules:
// a plan starting Jan 31 bills Feb 28/29, not Mar 2.
func installmentDate(start time.Time, index int, freq Frequency) time.Time {
	if index == 0 {
		return start
	}
	switch freq {
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*index)
	case FrequencyQuarterly:
		return addMonthsClamped(start, 3*index)
	case FrequencySemiannually:
		return addMonthsClamped(start, 6*index)
	case FrequencyAnnually:
		return addMonthsClamped(start, 12*index)
	default: // monthly
		return addMonthsClamped(start, index)
	}
}

// addMonthsClamped advances by whole months, clamping the day to the last
// day of the target month.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	targetFirst := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	ty, tm, _ := targetFirst.Date()
	last := time.Date(ty, tm+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, t.Location())
}

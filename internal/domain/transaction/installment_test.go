package transaction

import (
	"testing"
	"time"

	"fatura/internal/domain/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandInstallmentsTotalSplit(t *testing.T) {
	// 100.00 over 3 installments: 33.33, 33.33, 33.34
	got := ExpandInstallments(10000, 3, date(2025, time.January, 15), FrequencyMonthly, true)

	if len(got) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(got))
	}

	wantAmounts := []money.Cents{3333, 3333, 3334}
	var sum money.Cents
	for i, inst := range got {
		if inst.Amount != wantAmounts[i] {
			t.Errorf("installment %d amount = %d, want %d", i+1, inst.Amount, wantAmounts[i])
		}
		sum += inst.Amount
	}
	if sum != 10000 {
		t.Errorf("installments sum to %d, want exactly 10000", sum)
	}

	wantDates := []time.Time{
		date(2025, time.January, 15),
		date(2025, time.February, 15),
		date(2025, time.March, 15),
	}
	for i, inst := range got {
		if !inst.Date.Equal(wantDates[i]) {
			t.Errorf("installment %d date = %v, want %v", i+1, inst.Date, wantDates[i])
		}
	}
}

func TestExpandInstallmentsFixedPerInstallment(t *testing.T) {
	got := ExpandInstallments(5000, 4, date(2025, time.March, 1), FrequencyMonthly, false)

	if len(got) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(got))
	}
	for i, inst := range got {
		if inst.Amount != 5000 {
			t.Errorf("installment %d amount = %d, want 5000", i+1, inst.Amount)
		}
	}
}

func TestExpandInstallmentsSingle(t *testing.T) {
	for _, amountIsTotal := range []bool{true, false} {
		got := ExpandInstallments(5000, 1, date(2025, time.June, 10), FrequencyMonthly, amountIsTotal)
		if len(got) != 1 {
			t.Fatalf("amountIsTotal=%v: expected 1 installment, got %d", amountIsTotal, len(got))
		}
		if got[0].Amount != 5000 {
			t.Errorf("amountIsTotal=%v: amount = %d, want 5000", amountIsTotal, got[0].Amount)
		}
		if !got[0].Date.Equal(date(2025, time.June, 10)) {
			t.Errorf("amountIsTotal=%v: date = %v, want start date", amountIsTotal, got[0].Date)
		}
	}
}

func TestExpandInstallmentsRemainderAbsorbed(t *testing.T) {
	cases := []struct {
		total money.Cents
		count int
	}{
		{10000, 3},
		{9999, 7},
		{1, 2},
		{100, 6},
		{33333, 12},
	}
	for _, tc := range cases {
		got := ExpandInstallments(tc.total, tc.count, date(2025, time.January, 1), FrequencyMonthly, true)
		var sum money.Cents
		for _, inst := range got {
			sum += inst.Amount
		}
		if sum != tc.total {
			t.Errorf("total=%d count=%d: sum = %d, want %d", tc.total, tc.count, sum, tc.total)
		}
	}
}

func TestInstallmentDates(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		freq  Frequency
		index int
		want  time.Time
	}{
		{"WeeklyAddsSevenDays", date(2025, time.January, 1), FrequencyWeekly, 2, date(2025, time.January, 15)},
		{"MonthlyEndOfMonthClamps", date(2025, time.January, 31), FrequencyMonthly, 1, date(2025, time.February, 28)},
		{"MonthlyLeapYearClamps", date(2024, time.January, 31), FrequencyMonthly, 1, date(2024, time.February, 29)},
		{"MonthlyClampDoesNotStick", date(2025, time.January, 31), FrequencyMonthly, 2, date(2025, time.March, 31)},
		{"QuarterlyAddsThreeMonths", date(2025, time.February, 10), FrequencyQuarterly, 1, date(2025, time.May, 10)},
		{"SemiannuallyAddsSixMonths", date(2025, time.January, 15), FrequencySemiannually, 1, date(2025, time.July, 15)},
		{"AnnuallyAddsYear", date(2025, time.March, 5), FrequencyAnnually, 2, date(2027, time.March, 5)},
		{"AnnuallyLeapDayClamps", date(2024, time.February, 29), FrequencyAnnually, 1, date(2025, time.February, 28)},
		{"YearWrap", date(2025, time.November, 20), FrequencyMonthly, 3, date(2026, time.February, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := installmentDate(tt.start, tt.index, tt.freq)
			if !got.Equal(tt.want) {
				t.Errorf("installmentDate(%v, %d, %s) = %v, want %v", tt.start, tt.index, tt.freq, got, tt.want)
			}
		})
	}
}

func TestIsValidFrequency(t *testing.T) {
	for _, f := range []Frequency{FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencySemiannually, FrequencyAnnually} {
		if !IsValidFrequency(f) {
			t.Errorf("%s should be valid", f)
		}
	}
	if IsValidFrequency("daily") {
		t.Error("daily should not be valid")
	}
	if IsValidFrequency("") {
		t.Error("empty frequency should not be valid")
	}
}

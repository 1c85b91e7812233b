package money

import "testing"

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out Cents
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestDivideRound(t *testing.T) {
	cases := []struct {
		total Cents
		n     int
		want  Cents
	}{
		{10000, 3, 3333},
		{10001, 3, 3334}, // 3333.67 rounds up
		{100, 1, 100},
		{99, 2, 50}, // 49.5 rounds half up
		{-10000, 3, -3333},
	}
	for _, tc := range cases {
		if got := tc.total.DivideRound(tc.n); got != tc.want {
			t.Errorf("%d / %d = %d, want %d", tc.total, tc.n, got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   Cents
		want string
	}{
		{12345, "123.45"},
		{-7, "-0.07"},
		{0, "0.00"},
		{100, "1.00"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromFloat(t *testing.T) {
	if got := FromFloat(33.33); got != 3333 {
		t.Errorf("FromFloat(33.33) = %d", got)
	}
	if got := FromFloat(-0.015); got != -2 {
		t.Errorf("FromFloat(-0.015) = %d", got)
	}
}

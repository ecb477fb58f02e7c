package rewards

import (
	"errors"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]uint64{
		"0.01":        10_000_000,
		"0.05":        50_000_000,
		"0.1":         100_000_000,
		"1":           1_000_000_000,
		"0.000000001": 1,
		"0":           0,
		" 2.5 ":       2_500_000_000,
	}
	for raw, want := range cases {
		got, err := ParseAmount(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %d got %d", raw, want, got)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, raw := range []string{"", "abc", "-1", "0.0000000001", "18446744073.709551616"} {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("parse %q: expected invalid amount got %v", raw, err)
		}
	}
	got, err := ParseAmount("18446744073.709551615")
	if err != nil {
		t.Fatalf("parse max: %v", err)
	}
	if got != math.MaxUint64 {
		t.Fatalf("expected max uint64 got %d", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[uint64]string{
		1_200_000_000: "1.2",
		900_000_000:   "0.9",
		125_000_000:   "0.125",
		0:             "0",
		1:             "0.000000001",
	}
	for units, want := range cases {
		if got := FormatAmount(units); got != want {
			t.Fatalf("format %d: expected %s got %s", units, want, got)
		}
	}
}

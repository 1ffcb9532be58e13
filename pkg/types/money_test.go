package types

import "testing"

func TestDollarsFromCents(t *testing.T) {
	cases := map[int]string{
		0:     "0.00",
		5:     "0.05",
		1999:  "19.99",
		12000: "120.00",
	}
	for cents, want := range cases {
		if got := DollarsFromCents(cents); got != want {
			t.Fatalf("DollarsFromCents(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestCentsLineTotal(t *testing.T) {
	if got := CentsLineTotal(1999, 3); got != 5997 {
		t.Fatalf("unexpected line total %d", got)
	}
	if got := CentsLineTotal(0, 10); got != 0 {
		t.Fatalf("expected zero total, got %d", got)
	}
}

package timespan

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1 day 02:00:00", "1d2h"},
		{"2 days 00:00:00", "2d"},
		{"00:30:00", "30m"},
		{"02:30:00", "2h30m"},
		{"00:00:45", "45s"},
		{"1 day 00:00:45", "1d"}, // seconds dropped once a coarser unit matched
		{"2 hours", "2h"},
		{"45 minutes", "45m"},
		{"3 hours 15 minutes", "3h15m"},
		{"1 day", "1d"},
		{"", ""},
		{"garbage", ""},
		{"soon", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, tok := range []string{"1d2h", "30m", "2d", "45s", "1d2h30m"} {
		if got := Normalize(tok); got != tok {
			t.Errorf("Normalize(%q) = %q, want unchanged", tok, got)
		}
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1d2h", 26 * time.Hour, true},
		{"30m", 30 * time.Minute, true},
		{"1d2h30m", 26*time.Hour + 30*time.Minute, true},
		{"45s", 45 * time.Second, true},
		{"", 0, false},
		{"garbage", 0, false},
	}
	for _, c := range cases {
		got, ok := Duration(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("Duration(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

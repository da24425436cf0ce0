package segment

import (
	"errors"
	"testing"
)

func TestParseTimecode(t *testing.T) {
	good := map[string]float64{
		"5":         5,
		"12.75":     12.75,
		"20s":       20,
		"1:30":      90,
		"01:02:03":  3723,
		"0:00:10.5": 10.5,
		"2:05s":     125,
	}
	for in, want := range good {
		got, err := ParseTimecode(in)
		if err != nil {
			t.Fatalf("ParseTimecode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTimecode(%q)=%v want=%v", in, got, want)
		}
	}

	bad := []string{"", "1:2:3:4", "1.5:30", "a:10", "1::2", "1.2.3", "-4", "NaN"}
	for _, in := range bad {
		if _, err := ParseTimecode(in); !errors.Is(err, ErrTimecode) {
			t.Fatalf("ParseTimecode(%q) err=%v", in, err)
		}
	}
}

package segment

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrTimecode = errors.New("invalid timecode")

var groupWeights = []float64{3600, 60, 1}

// ParseTimecode converts a bare number of seconds ("12.5") or a colon-delimited
// H:M:S[.f] / M:S value into seconds. Every group must be purely digits; only the
// last group may carry a fractional part.
func ParseTimecode(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "s"), "S")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrTimecode)
	}
	if !strings.Contains(s, ":") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %q", ErrTimecode, raw)
		}
		return f, nil
	}

	groups := strings.Split(s, ":")
	if len(groups) > len(groupWeights) {
		return 0, fmt.Errorf("%w: too many groups in %q", ErrTimecode, raw)
	}
	weights := groupWeights[len(groupWeights)-len(groups):]

	total := 0.0
	for i, g := range groups {
		whole, frac := g, ""
		if i == len(groups)-1 {
			if dot := strings.IndexByte(g, '.'); dot >= 0 {
				whole, frac = g[:dot], g[dot+1:]
			}
		}
		if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
			return 0, fmt.Errorf("%w: group %q in %q", ErrTimecode, g, raw)
		}
		n, _ := strconv.ParseFloat(whole, 64)
		total += n * weights[i]
		if frac != "" {
			f, _ := strconv.ParseFloat("0."+frac, 64)
			total += f * weights[i]
		}
	}
	return total, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

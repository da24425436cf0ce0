package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/segment"
)

var (
	boundaryLine  = regexp.MustCompile(`(?i)^(?:subtopic|segment)\s+\d+`)
	keyValueLine  = regexp.MustCompile(`^([A-Za-z][A-Za-z _-]*?)\s*:\s*(.*)$`)
	listMarker    = regexp.MustCompile(`^(?:[-*+•]|\d+[.)])\s+`)
	firstNumber   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	timecodeToken = regexp.MustCompile(`\d+(?::\d+){1,2}(?:\.\d+)?`)
	durationUnit  = regexp.MustCompile(`(?i)\s*(?:seconds?|secs?|s)\s*$`)
)

// LineScanner is tier B of the text fallback: a tolerant line-by-line state
// machine for loosely formatted "key: value" answers.
type LineScanner struct {
	log *logger.Logger
}

func NewLineScanner(log *logger.Logger) *LineScanner {
	if log == nil {
		log = logger.NewNop()
	}
	return &LineScanner{log: log}
}

func (s *LineScanner) Tier() Tier { return TierLineScan }

type accumulator struct {
	cand    segment.RawCandidate
	started int
}

func (a *accumulator) flushable() bool {
	return a.cand.Has(segment.KeyStart) || a.cand.Has(segment.KeyEnd)
}

func (s *LineScanner) Extract(text string) (Extraction, error) {
	var (
		ext Extraction
		acc *accumulator
	)
	flush := func() {
		if acc == nil {
			return
		}
		if acc.cand.Len() > 0 {
			if acc.flushable() {
				ext.Candidates = append(ext.Candidates, acc.cand)
			} else {
				ext.Issues = append(ext.Issues, Issue{Tier: TierLineScan, Line: acc.started, Detail: "block has neither start_time nor end_time"})
				s.log.Debug("line block discarded", "line", acc.started, "keys", acc.cand.Keys())
			}
		}
		acc = nil
	}

	lines := strings.Split(normalizeNewlines(text), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		if loc := boundaryLine.FindStringIndex(line); loc != nil {
			flush()
			acc = &accumulator{started: lineNo}
			rest := line[loc[1]:]
			if idx := strings.Index(rest, ":"); idx >= 0 {
				acc.cand.Set(segment.KeyTitle, textValue(rest[idx+1:]))
			}
			continue
		}

		m := keyValueLine.FindStringSubmatch(line)
		if m == nil {
			ext.Issues = append(ext.Issues, Issue{Tier: TierLineScan, Line: lineNo, Detail: "not a key: value line"})
			s.log.Debug("line skipped", "line", lineNo, "content", line)
			continue
		}
		key, ok := segment.CanonicalKey(m[1])
		if !ok {
			ext.Issues = append(ext.Issues, Issue{Tier: TierLineScan, Line: lineNo, Detail: fmt.Sprintf("unknown key %q", m[1])})
			s.log.Debug("line skipped", "line", lineNo, "key", m[1])
			continue
		}
		val, err := coerceLineValue(key, m[2])
		if err != nil {
			ext.Issues = append(ext.Issues, Issue{Tier: TierLineScan, Line: lineNo, Detail: fmt.Sprintf("%s: %v", key, err)})
			s.log.Debug("line value rejected", "line", lineNo, "key", key, "error", err)
			continue
		}
		if acc == nil {
			acc = &accumulator{started: lineNo}
		}
		// A title line overrides the tentative title taken from the boundary line.
		acc.cand.Set(key, val)
	}
	flush()

	if len(ext.Candidates) == 0 {
		return ext, fmt.Errorf("%w: no line block carried a start or end time", ErrNoCandidates)
	}
	return ext, nil
}

func coerceLineValue(key, raw string) (segment.RawValue, error) {
	raw = strings.TrimSpace(raw)
	switch key {
	case segment.KeyStart, segment.KeyEnd, segment.KeyDuration:
		if key == segment.KeyDuration {
			raw = durationUnit.ReplaceAllString(raw, "")
		}
		if tc := timecodeToken.FindString(raw); tc != "" {
			secs, err := segment.ParseTimecode(tc)
			if err != nil {
				return segment.Missing(), err
			}
			return segment.Number(secs), nil
		}
		n := firstNumber.FindString(raw)
		if n == "" {
			return segment.Missing(), fmt.Errorf("no number in %q", raw)
		}
		secs, err := segment.ParseTimecode(n)
		if err != nil {
			return segment.Missing(), err
		}
		return segment.Number(secs), nil
	case segment.KeyPlatforms:
		items := segment.SplitList(raw)
		if len(items) == 0 {
			return segment.Missing(), fmt.Errorf("empty list")
		}
		return segment.Strings(items), nil
	case segment.KeyHashtags:
		items := splitHashtags(raw)
		if len(items) == 0 {
			return segment.Missing(), fmt.Errorf("empty list")
		}
		return segment.Strings(items), nil
	default:
		v := textValue(strings.Trim(raw, `"`))
		if !v.Present() {
			return v, fmt.Errorf("empty value")
		}
		return v, nil
	}
}

// cleanLine drops list markers and markdown emphasis around labels.
func cleanLine(raw string) string {
	line := strings.TrimSpace(raw)
	line = listMarker.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimSpace(line)
}

package segment

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/clipfinder/internal/platform/logger"
)

type RejectReason string

const (
	ReasonMissingField RejectReason = "missing_field"
	ReasonTypeCoercion RejectReason = "type_coercion"
	ReasonInvalidRange RejectReason = "invalid_range"
)

// RejectRecord explains why one candidate was not promoted to a Segment.
type RejectRecord struct {
	Index  int          `json:"index"`
	Tier   string       `json:"tier,omitempty"`
	Reason RejectReason `json:"reason"`
	Field  string       `json:"field,omitempty"`
	Detail string       `json:"detail,omitempty"`
}

type WarningCode string

const (
	WarnDurationMismatch WarningCode = "duration_mismatch"
	WarnTitleTooLong     WarningCode = "title_too_long"
	WarnUnknownPlatform  WarningCode = "unknown_platform"
)

// Warning is a non-fatal observation about a candidate that was still accepted.
type Warning struct {
	Index  int         `json:"index"`
	Tier   string      `json:"tier,omitempty"`
	Code   WarningCode `json:"code"`
	Field  string      `json:"field,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// Policy holds the tunables of candidate validation.
type Policy struct {
	// DurationTolerance is the largest accepted gap (seconds) between a supplied
	// duration and end_time - start_time before a mismatch warning is raised.
	DurationTolerance float64
	// TitleMaxLen is advisory; longer titles produce a warning.
	TitleMaxLen      int
	DefaultPlatforms []string
}

func DefaultPolicy() Policy {
	return Policy{
		DurationTolerance: 0.5,
		TitleMaxLen:       70,
		DefaultPlatforms:  SupportedPlatforms(),
	}
}

// Report is the outcome of validating one batch of candidates.
type Report struct {
	Segments []Segment
	Rejects  []RejectRecord
	Warnings []Warning
}

type Validator struct {
	log    *logger.Logger
	policy Policy
}

func NewValidator(log *logger.Logger, policy Policy) *Validator {
	if policy.DurationTolerance < 0 {
		policy.DurationTolerance = 0
	}
	if len(policy.DefaultPlatforms) == 0 {
		policy.DefaultPlatforms = SupportedPlatforms()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Validator{log: log, policy: policy}
}

var requiredKeys = []string{KeyStart, KeyEnd, KeyTitle, KeyHook, KeyDescription}

// Validate promotes each candidate independently; a bad candidate is recorded and
// skipped, never aborting its siblings. tier labels the records for diagnostics.
func (v *Validator) Validate(tier string, candidates []RawCandidate) Report {
	rep := Report{Segments: []Segment{}}
	for i, c := range candidates {
		seg, warns, rej := v.validateOne(tier, i, c)
		rep.Warnings = append(rep.Warnings, warns...)
		if rej != nil {
			v.log.Warn("segment candidate rejected",
				"tier", tier,
				"index", i,
				"reason", string(rej.Reason),
				"field", rej.Field,
				"detail", rej.Detail,
			)
			rep.Rejects = append(rep.Rejects, *rej)
			continue
		}
		rep.Segments = append(rep.Segments, seg)
	}
	return rep
}

func (v *Validator) validateOne(tier string, idx int, c RawCandidate) (Segment, []Warning, *RejectRecord) {
	reject := func(reason RejectReason, field, detail string) (Segment, []Warning, *RejectRecord) {
		return Segment{}, nil, &RejectRecord{Index: idx, Tier: tier, Reason: reason, Field: field, Detail: detail}
	}

	var missing []string
	for _, k := range requiredKeys {
		if isBlank(c.Get(k)) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return reject(ReasonMissingField, missing[0], "missing "+strings.Join(missing, ", "))
	}

	start, ok := c.Get(KeyStart).Float()
	if !ok {
		return reject(ReasonTypeCoercion, KeyStart, describe(c.Get(KeyStart)))
	}
	end, ok := c.Get(KeyEnd).Float()
	if !ok {
		return reject(ReasonTypeCoercion, KeyEnd, describe(c.Get(KeyEnd)))
	}
	var supplied float64
	hasDuration := c.Has(KeyDuration)
	if hasDuration {
		if supplied, ok = c.Get(KeyDuration).Float(); !ok {
			return reject(ReasonTypeCoercion, KeyDuration, describe(c.Get(KeyDuration)))
		}
	}

	texts := make(map[string]string, 3)
	for _, k := range []string{KeyTitle, KeyHook, KeyDescription} {
		s, ok := c.Get(k).Text()
		if !ok {
			return reject(ReasonTypeCoercion, k, describe(c.Get(k)))
		}
		texts[k] = s
	}

	if start < 0 {
		return reject(ReasonInvalidRange, KeyStart, fmt.Sprintf("start_time %g is negative", start))
	}
	if end <= start {
		return reject(ReasonInvalidRange, KeyEnd, fmt.Sprintf("end_time %g <= start_time %g", end, start))
	}

	var warns []Warning
	warn := func(code WarningCode, field, detail string) {
		warns = append(warns, Warning{Index: idx, Tier: tier, Code: code, Field: field, Detail: detail})
	}

	computed := roundMillis(end - start)
	if hasDuration && math.Abs(supplied-computed) > v.policy.DurationTolerance {
		detail := fmt.Sprintf("supplied %g, computed %g", supplied, computed)
		v.log.Warn("segment duration mismatch", "tier", tier, "index", idx, "supplied", supplied, "computed", computed)
		warn(WarnDurationMismatch, KeyDuration, detail)
	}

	title := texts[KeyTitle]
	if v.policy.TitleMaxLen > 0 && utf8.RuneCountInString(title) > v.policy.TitleMaxLen {
		warn(WarnTitleTooLong, KeyTitle, fmt.Sprintf("%d chars", utf8.RuneCountInString(title)))
	}

	platforms, unknown := v.platforms(c.Get(KeyPlatforms))
	for _, p := range unknown {
		warn(WarnUnknownPlatform, KeyPlatforms, p)
	}

	return Segment{
		StartTime:   start,
		EndTime:     end,
		Duration:    computed,
		Title:       title,
		Hook:        texts[KeyHook],
		Description: texts[KeyDescription],
		Platforms:   platforms,
		Hashtags:    hashtags(c.Get(KeyHashtags)),
	}, warns, nil
}

// platforms returns the canonical tags in order followed by the unknown ones
// as written. Unknown tags are also returned separately for warnings.
func (v *Validator) platforms(raw RawValue) ([]string, []string) {
	seen := map[string]bool{}
	var out, unknown []string
	for _, tag := range raw.TextList() {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		canon, ok := CanonicalPlatform(tag)
		if !ok {
			if k := strings.ToLower(tag); !seen[k] {
				seen[k] = true
				unknown = append(unknown, tag)
			}
			continue
		}
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, canon)
	}
	out = append(out, unknown...)
	if len(out) == 0 {
		out = append([]string(nil), v.policy.DefaultPlatforms...)
	}
	return out, unknown
}

func hashtags(raw RawValue) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, tag := range raw.TextList() {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func isBlank(v RawValue) bool {
	switch v.Kind {
	case KindMissing:
		return true
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	default:
		return false
	}
}

func describe(v RawValue) string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("cannot coerce %q", logger.Preview(v.Str))
	default:
		return "cannot coerce " + v.Kind.String()
	}
}

func roundMillis(f float64) float64 {
	return math.Round(f*1000) / 1000
}

package segment

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the dynamic shape of a RawValue.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindString
	KindList
	// KindOther covers objects and anything else that has no useful coercion.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "other"
	}
}

// RawValue is one untyped field of a candidate before validation.
type RawValue struct {
	Kind Kind
	Num  float64
	Str  string
	List []RawValue
}

func Missing() RawValue { return RawValue{} }

func Number(f float64) RawValue { return RawValue{Kind: KindNumber, Num: f} }

func String(s string) RawValue { return RawValue{Kind: KindString, Str: s} }

func List(items ...RawValue) RawValue { return RawValue{Kind: KindList, List: items} }

func Strings(items []string) RawValue {
	out := make([]RawValue, 0, len(items))
	for _, s := range items {
		out = append(out, String(s))
	}
	return List(out...)
}

// FromAny wraps a value produced by encoding/json (or a plain Go literal).
func FromAny(v any) RawValue {
	switch t := v.(type) {
	case nil:
		return Missing()
	case RawValue:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	case string:
		return String(t)
	case bool:
		return String(strconv.FormatBool(t))
	case []string:
		return Strings(t)
	case []any:
		out := make([]RawValue, 0, len(t))
		for _, item := range t {
			out = append(out, FromAny(item))
		}
		return List(out...)
	default:
		return RawValue{Kind: KindOther}
	}
}

func (v RawValue) Present() bool { return v.Kind != KindMissing }

var leadingNumber = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?`)

// Float coerces leniently: numbers pass through, strings may carry a unit suffix
// ("30s", "12.5 seconds") or be a colon timecode ("1:05").
func (v RawValue) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, false
		}
		if strings.Contains(s, ":") {
			if f, err := ParseTimecode(s); err == nil {
				return f, true
			}
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
		m := leadingNumber.FindString(s)
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text coerces scalars to a trimmed string.
func (v RawValue) Text() (string, bool) {
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Str), true
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// TextList flattens a list (or a comma separated string) into trimmed, non-empty strings.
func (v RawValue) TextList() []string {
	switch v.Kind {
	case KindList:
		out := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if s, ok := item.Text(); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case KindString:
		return SplitList(v.Str)
	default:
		return nil
	}
}

// SplitList splits a comma separated value into trimmed, non-empty items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Canonical candidate keys.
const (
	KeyStart       = "start_time"
	KeyEnd         = "end_time"
	KeyDuration    = "duration"
	KeyTitle       = "yt_title"
	KeyHook        = "hook"
	KeyDescription = "description"
	KeyPlatforms   = "platforms"
	KeyHashtags    = "hashtags"
)

var synonyms = map[string]string{
	"start":            KeyStart,
	"start_time":       KeyStart,
	"starttime":        KeyStart,
	"start_sec":        KeyStart,
	"start_seconds":    KeyStart,
	"begin":            KeyStart,
	"from":             KeyStart,
	"end":              KeyEnd,
	"end_time":         KeyEnd,
	"endtime":          KeyEnd,
	"end_sec":          KeyEnd,
	"end_seconds":      KeyEnd,
	"stop":             KeyEnd,
	"to":               KeyEnd,
	"duration":         KeyDuration,
	"duration_seconds": KeyDuration,
	"length":           KeyDuration,
	"title":            KeyTitle,
	"yt_title":         KeyTitle,
	"youtube_title":    KeyTitle,
	"video_title":      KeyTitle,
	"hook":             KeyHook,
	"description":      KeyDescription,
	"desc":             KeyDescription,
	"summary":          KeyDescription,
	"platforms":        KeyPlatforms,
	"platform":         KeyPlatforms,
	"hashtags":         KeyHashtags,
	"hashtag":          KeyHashtags,
	"tags":             KeyHashtags,
}

// CanonicalKey lowercases k, turns spaces and dashes into underscores and maps
// known synonyms onto the canonical set. ok reports whether k is a known field.
func CanonicalKey(k string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(k))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if c, ok := synonyms[norm]; ok {
		return c, true
	}
	return norm, false
}

// RawCandidate is an untyped record produced by one decode or parse tier.
type RawCandidate struct {
	fields map[string]RawValue
}

// CandidateFromMap copies a decoded JSON object, normalising keys on the way in.
// Keys that are not part of the canonical set are dropped.
func CandidateFromMap(m map[string]any) RawCandidate {
	var c RawCandidate
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Exact canonical spellings are applied last so they win over synonyms.
	rank := func(k string) int {
		if canon, _ := CanonicalKey(k); canon == k {
			return 1
		}
		return 0
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		c.Set(k, FromAny(m[k]))
	}
	return c
}

// Set stores v under the canonical form of key. Unknown keys and missing values are ignored.
func (c *RawCandidate) Set(key string, v RawValue) {
	canon, ok := CanonicalKey(key)
	if !ok || !v.Present() {
		return
	}
	if c.fields == nil {
		c.fields = map[string]RawValue{}
	}
	c.fields[canon] = v
}

func (c RawCandidate) Get(key string) RawValue {
	if c.fields == nil {
		return Missing()
	}
	return c.fields[key]
}

func (c RawCandidate) Has(key string) bool { return c.Get(key).Present() }

func (c RawCandidate) Len() int { return len(c.fields) }

// Keys returns the populated canonical keys in sorted order.
func (c RawCandidate) Keys() []string {
	out := make([]string, 0, len(c.fields))
	for k := range c.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

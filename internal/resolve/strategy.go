package resolve

import (
	"github.com/yungbote/clipfinder/internal/segment"
)

// Tier names one strategy of the extraction cascade.
type Tier string

const (
	TierStructured  Tier = "structured_json"
	TierTemplate    Tier = "text_template"
	TierLineScan    Tier = "text_lines"
	TierPlaceholder Tier = "placeholder"
)

// Issue is a parse-level diagnostic: a line, match or record a tier could not use.
type Issue struct {
	Tier    Tier   `json:"tier"`
	Pattern string `json:"pattern,omitempty"`
	Line    int    `json:"line,omitempty"`
	Detail  string `json:"detail"`
}

// Extraction is what a strategy produced from one piece of text.
type Extraction struct {
	Candidates []segment.RawCandidate
	Issues     []Issue
}

// Strategy turns text into candidates. It returns an error (and possibly issues)
// when it yields nothing usable.
type Strategy interface {
	Tier() Tier
	Extract(text string) (Extraction, error)
}

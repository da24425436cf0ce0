package resolve

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yungbote/clipfinder/internal/segment"
)

// StructuredDecoder strictly decodes {"segments": [...]} payloads.
type StructuredDecoder struct{}

func (StructuredDecoder) Tier() Tier { return TierStructured }

func (StructuredDecoder) Extract(text string) (Extraction, error) {
	var root any
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return Extraction{}, &DecodeError{Kind: DecodeSyntax, Err: err}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return Extraction{}, &DecodeError{Kind: DecodeStructure, Err: fmt.Errorf("top-level value is %s, want object", jsonKind(root))}
	}
	rawSegments, ok := obj["segments"]
	if !ok {
		return Extraction{}, &DecodeError{Kind: DecodeStructure, Err: errors.New(`key "segments" missing`)}
	}
	items, ok := rawSegments.([]any)
	if !ok {
		return Extraction{}, &DecodeError{Kind: DecodeStructure, Err: fmt.Errorf(`"segments" is %s, want array`, jsonKind(rawSegments))}
	}

	ext := Extraction{Candidates: make([]segment.RawCandidate, 0, len(items))}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			// Kept as an empty candidate so the validator records it under its own index.
			ext.Issues = append(ext.Issues, Issue{Tier: TierStructured, Detail: fmt.Sprintf("segments[%d] is %s, want object", i, jsonKind(item))})
			ext.Candidates = append(ext.Candidates, segment.RawCandidate{})
			continue
		}
		ext.Candidates = append(ext.Candidates, segment.CandidateFromMap(m))
	}
	return ext, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

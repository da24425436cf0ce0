package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/segment"
)

const (
	valueTime = `[0-9][0-9:.]*`
	valueText = `[^\n]*?`
	unitWord  = `(?:[ \t]*(?:seconds?|secs?|s))?`

	labelTitle       = `(?:yt[ _]?)?title`
	labelStart       = `start(?:[ _]time)?`
	labelEnd         = `end(?:[ _]time)?`
	labelDuration    = `duration`

	blockHeader = `(?im)^[ \t]*(?:subtopic|segment)[ \t]+\d+[ \t]*[:.)-]?[ \t]*(?P<subtopic>` + valueText + `)[ \t]*$`
)

// field matches one "Label: value" line that follows the previous line of the block.
func field(label, group, value, suffix string) string {
	return `\n\s*` + label + `[ \t]*:[ \t]*(?P<` + group + `>` + value + `)` + suffix + `[ \t]*$`
}

func optional(p string) string { return `(?:` + p + `)?` }

var blockStart = regexp.MustCompile(blockHeader)

// trailingKeys are collected from the rest of the block in whatever order the
// model wrote them.
var trailingKeys = map[string]bool{
	segment.KeyDuration:    true,
	segment.KeyHook:        true,
	segment.KeyDescription: true,
	segment.KeyPlatforms:   true,
	segment.KeyHashtags:    true,
}

// Ordered: the first template that matches anything wins. Each template pins
// the block header, title and times; the remaining labelled lines of the
// block are read by label.
var defaultTemplates = []namedTemplate{
	{
		name: "subtopic_title_first",
		re: regexp.MustCompile(blockHeader +
			field(labelTitle, "title", valueText, "") +
			field(labelStart, "start", valueTime, unitWord) +
			field(labelEnd, "end", valueTime, unitWord) +
			optional(field(labelDuration, "duration", valueTime, unitWord))),
	},
	{
		name: "subtopic_times_first",
		re: regexp.MustCompile(blockHeader +
			field(labelStart, "start", valueTime, unitWord) +
			field(labelEnd, "end", valueTime, unitWord) +
			optional(field(labelDuration, "duration", valueTime, unitWord)) +
			field(labelTitle, "title", valueText, "")),
	},
}

type namedTemplate struct {
	name string
	re   *regexp.Regexp
}

// TemplateParser is tier A of the text fallback: it recognises known labelled
// block layouts with whole-text regular expressions.
type TemplateParser struct {
	log       *logger.Logger
	templates []namedTemplate
}

func NewTemplateParser(log *logger.Logger) *TemplateParser {
	if log == nil {
		log = logger.NewNop()
	}
	return &TemplateParser{log: log, templates: defaultTemplates}
}

func (p *TemplateParser) Tier() Tier { return TierTemplate }

func (p *TemplateParser) Extract(text string) (Extraction, error) {
	text = normalizeNewlines(text)
	for _, tpl := range p.templates {
		matches := tpl.re.FindAllStringSubmatchIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		p.log.Debug("template matched", "pattern", tpl.name, "matches", len(matches))

		var ext Extraction
		for i, loc := range matches {
			groups := namedGroups(tpl.re, text, loc)
			collectTrailing(groups, blockTail(text, loc[1]))
			cand, err := candidateFromGroups(groups)
			if err != nil {
				p.log.Warn("template match discarded", "pattern", tpl.name, "match", i, "error", err)
				ext.Issues = append(ext.Issues, Issue{Tier: TierTemplate, Pattern: tpl.name, Detail: fmt.Sprintf("match %d: %v", i, err)})
				continue
			}
			ext.Candidates = append(ext.Candidates, cand)
		}
		if len(ext.Candidates) == 0 {
			return ext, fmt.Errorf("%w: pattern %s matched but every match was discarded", ErrNoCandidates, tpl.name)
		}
		return ext, nil
	}
	return Extraction{}, fmt.Errorf("%w: no template matched", ErrNoCandidates)
}

func candidateFromGroups(g map[string]string) (segment.RawCandidate, error) {
	var c segment.RawCandidate
	for _, key := range []string{"start", "end", "duration"} {
		raw := g[key]
		if raw == "" {
			continue
		}
		secs, err := segment.ParseTimecode(raw)
		if err != nil {
			return segment.RawCandidate{}, fmt.Errorf("%s: %w", key, err)
		}
		c.Set(key, segment.Number(secs))
	}

	title := g["title"]
	if title == "" {
		title = g["subtopic"]
	}
	c.Set(segment.KeyTitle, textValue(title))
	c.Set(segment.KeyHook, textValue(g["hook"]))
	c.Set(segment.KeyDescription, textValue(g["description"]))
	if v := g["platforms"]; v != "" {
		c.Set(segment.KeyPlatforms, segment.Strings(segment.SplitList(v)))
	}
	if v := g["hashtags"]; v != "" {
		c.Set(segment.KeyHashtags, segment.Strings(splitHashtags(v)))
	}
	return c, nil
}

func namedGroups(re *regexp.Regexp, text string, loc []int) map[string]string {
	out := make(map[string]string, len(loc)/2)
	for i, name := range re.SubexpNames() {
		if name == "" || 2*i+1 >= len(loc) || loc[2*i] < 0 {
			continue
		}
		out[name] = strings.TrimSpace(text[loc[2*i]:loc[2*i+1]])
	}
	return out
}

// blockTail returns the text after a template match up to the next block header.
func blockTail(text string, from int) string {
	rest := text[from:]
	if loc := blockStart.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return rest
}

// collectTrailing fills the optional fields from "Label: value" lines. Groups
// the template already captured are kept, and the first line for a label wins.
func collectTrailing(groups map[string]string, tail string) {
	for _, raw := range strings.Split(tail, "\n") {
		m := keyValueLine.FindStringSubmatch(cleanLine(raw))
		if m == nil {
			continue
		}
		key, ok := segment.CanonicalKey(m[1])
		if !ok || !trailingKeys[key] || groups[key] != "" {
			continue
		}
		v := strings.TrimSpace(m[2])
		if key == segment.KeyDuration {
			v = durationUnit.ReplaceAllString(v, "")
			if _, err := segment.ParseTimecode(v); err != nil {
				continue
			}
		}
		groups[key] = v
	}
}

func textValue(s string) segment.RawValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return segment.Missing()
	}
	return segment.String(s)
}

// splitHashtags splits on commas and strips '#'. A tag may contain spaces.
func splitHashtags(s string) []string {
	fields := strings.Split(strings.ReplaceAll(s, "#", ""), ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

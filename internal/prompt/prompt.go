package prompt

import (
	"errors"
	"strconv"
	"strings"

	"github.com/yungbote/clipfinder/internal/llm"
	"github.com/yungbote/clipfinder/internal/segment"
)

var ErrEmptyTranscript = errors.New("prompt: transcript is empty")

const systemPrompt = "You are a viral short-form content expert. You identify segments from video transcripts " +
	"that can go viral on platforms like TikTok, YouTube Shorts, and Instagram Reels. " +
	"You MUST respond ONLY with a valid JSON object as specified. The JSON must have a single top-level key " +
	"\"segments\" holding a list of segment objects. Do not add any text before or after the JSON object."

const exampleSegment = `{
  "start_time": 120.5,
  "end_time": 150.0,
  "duration": 29.5,
  "yt_title": "Amazing Trick Shot!",
  "hook": "You won't believe what happens next!",
  "description": "A skilled performer lands an incredible trick shot that defies expectations.",
  "platforms": ["TikTok", "Instagram_Reels"],
  "hashtags": ["#trickshot", "#amazing", "#skill"]
}`

// Builder renders the segment-finding conversation for one transcript.
type Builder struct {
	platforms   []string
	titleMaxLen int
}

func NewBuilder(platforms []string, titleMaxLen int) *Builder {
	if len(platforms) == 0 {
		platforms = segment.SupportedPlatforms()
	}
	if titleMaxLen <= 0 {
		titleMaxLen = 70
	}
	return &Builder{platforms: append([]string(nil), platforms...), titleMaxLen: titleMaxLen}
}

// Build uses the default platform set and title limit.
func Build(transcript string) ([]llm.Message, error) {
	return NewBuilder(nil, 0).Build(transcript)
}

func (b *Builder) Build(transcript string) ([]llm.Message, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.userPrompt(transcript)},
	}, nil
}

func (b *Builder) userPrompt(transcript string) string {
	platforms := quoteList(b.platforms)

	var sb strings.Builder
	sb.WriteString("Provided to you is a transcript of a video.\n")
	sb.WriteString("Your task is to identify all segments that can be extracted as engaging, viral short-form content (15-60 seconds) ")
	sb.WriteString("suitable for platforms like TikTok, YouTube Shorts, and Instagram Reels.\n")
	sb.WriteString("For each segment, provide:\n")
	sb.WriteString("1. `start_time`: the precise start time of the segment in seconds (float).\n")
	sb.WriteString("2. `end_time`: the precise end time of the segment in seconds (float).\n")
	sb.WriteString("3. `duration`: the duration in seconds (float, end_time - start_time).\n")
	sb.WriteString("4. `yt_title`: a catchy, concise YouTube title (max ")
	sb.WriteString(strconv.Itoa(b.titleMaxLen))
	sb.WriteString(" characters).\n")
	sb.WriteString("5. `hook`: a compelling hook describing the first 3-5 seconds.\n")
	sb.WriteString("6. `description`: a brief summary of the segment and why it is engaging.\n")
	sb.WriteString("7. `platforms`: the platforms this segment suits best. Default to ")
	sb.WriteString(platforms)
	sb.WriteString(" if unsure.\n")
	sb.WriteString("8. `hashtags`: a list of relevant hashtags (e.g. [\"#viral\", \"#funnyclips\"]).\n\n")
	sb.WriteString("Respond ONLY with a valid JSON object containing a single key \"segments\", which is a list of these segment objects. ")
	sb.WriteString("All times are in seconds. Make sure the JSON is well-formed.\n\n")
	sb.WriteString("Example of a segment object:\n")
	sb.WriteString(exampleSegment)
	sb.WriteString("\n\nHere is the transcription:\n")
	sb.WriteString(transcript)
	return sb.String()
}

func quoteList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		quoted = append(quoted, `"`+it+`"`)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

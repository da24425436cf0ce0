package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/clipfinder/internal/segment"
)

func envelopeBytes(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(NewEnvelope(content))
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return b
}

const oneSegmentJSON = `{"segments":[{"start_time":10,"end_time":40,"duration":30,"yt_title":"A","hook":"H","description":"D","platforms":["TikTok"],"hashtags":["#x"]}]}`

type countingRecorder struct {
	mu          sync.Mutex
	resolutions map[string]int
	rejects     map[string]int
	warnings    map[string]int
	issues      map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		resolutions: map[string]int{},
		rejects:     map[string]int{},
		warnings:    map[string]int{},
		issues:      map[string]int{},
	}
}

func (r *countingRecorder) ObserveResolution(outcome, tier string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions[outcome+"/"+tier]++
}

func (r *countingRecorder) IncReject(tier, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejects[tier+"/"+reason]++
}

func (r *countingRecorder) IncWarning(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings[code]++
}

func (r *countingRecorder) IncIssue(tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues[tier]++
}

func TestResolveFencedJSON(t *testing.T) {
	p := New(nil, DefaultOptions())
	content := "```json\n" + oneSegmentJSON + "\n```"

	res, err := p.ResolveRaw(context.Background(), envelopeBytes(t, content))
	if err != nil {
		t.Fatalf("ResolveRaw: %v", err)
	}
	if res.Outcome != OutcomeDecoded || res.Tier != TierStructured {
		t.Fatalf("outcome=%s tier=%s, want decoded/structured_json", res.Outcome, res.Tier)
	}
	if !res.Fenced || res.ContentKind != ContentJSON {
		t.Fatalf("fenced=%v kind=%s", res.Fenced, res.ContentKind)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("segments=%d, want 1", len(res.Segments))
	}
	seg := res.Segments[0]
	if seg.Duration != 30 {
		t.Fatalf("duration=%v, want 30", seg.Duration)
	}
	if !reflect.DeepEqual(seg.Platforms, []string{"TikTok"}) {
		t.Fatalf("platforms=%v", seg.Platforms)
	}
	if !reflect.DeepEqual(seg.Hashtags, []string{"#x"}) {
		t.Fatalf("hashtags=%v", seg.Hashtags)
	}
	wantStates := []State{StateInit, StateExtracted, StateDecoded, StateValidated}
	if !reflect.DeepEqual(res.States, wantStates) {
		t.Fatalf("states=%v, want %v", res.States, wantStates)
	}
}

func TestResolveTemplateTextRejectsMissingHook(t *testing.T) {
	p := New(nil, DefaultOptions())
	content := "Subtopic 1: Cool bit\nTitle: Cool bit\nStart: 5\nEnd: 20\nDuration: 15 seconds\n"

	res, err := p.ResolveContent(context.Background(), content)
	if !errors.Is(err, ErrTerminalEmpty) {
		t.Fatalf("err=%v, want terminal empty", err)
	}
	var terr *TerminalEmptyError
	if !errors.As(err, &terr) || terr.Rejects != 1 {
		t.Fatalf("terminal error=%#v", terr)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome=%s", res.Outcome)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Tier != TierTemplate || res.Attempts[0].Candidates != 1 {
		t.Fatalf("attempts=%+v, want a single template attempt with 1 candidate", res.Attempts)
	}
	if len(res.Rejects) != 1 {
		t.Fatalf("rejects=%+v", res.Rejects)
	}
	rj := res.Rejects[0]
	if rj.Reason != segment.ReasonMissingField || rj.Field != segment.KeyHook || rj.Tier != string(TierTemplate) {
		t.Fatalf("reject=%+v", rj)
	}
}

func TestResolveTemplateTextFieldOrder(t *testing.T) {
	head := "Subtopic 1: Cool bit\nTitle: Cool bit\nStart: 5\nEnd: 20\nDuration: 15 seconds\n"
	cases := []struct {
		name string
		tail string
	}{
		{"description before hook", "Description: D\nHook: H\n"},
		{"hashtags before hook", "Hashtags: #big moment, #x\nDescription: D\nHook: H\n"},
		{"platforms first", "Platforms: TikTok\nHook: H\nDescription: D\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(nil, DefaultOptions())
			res, err := p.ResolveContent(context.Background(), head+tc.tail)
			if err != nil {
				t.Fatalf("ResolveContent: %v", err)
			}
			if res.Outcome != OutcomeRecovered || res.Tier != TierTemplate {
				t.Fatalf("outcome=%s tier=%s", res.Outcome, res.Tier)
			}
			if len(res.Segments) != 1 || len(res.Rejects) != 0 {
				t.Fatalf("segments=%+v rejects=%+v", res.Segments, res.Rejects)
			}
			seg := res.Segments[0]
			if seg.Hook != "H" || seg.Description != "D" || seg.StartTime != 5 || seg.EndTime != 20 {
				t.Fatalf("segment=%+v", seg)
			}
		})
	}
}

func TestResolveUnparseableTextIsTerminal(t *testing.T) {
	p := New(nil, DefaultOptions())

	res, err := p.ResolveContent(context.Background(), "not json and not matching any pattern")
	if !errors.Is(err, ErrTerminalEmpty) {
		t.Fatalf("err=%v, want terminal empty", err)
	}
	if res == nil || len(res.Segments) != 0 {
		t.Fatalf("result=%+v", res)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts=%+v, want both text tiers", res.Attempts)
	}
	if got := res.States[len(res.States)-1]; got != StateFailed {
		t.Fatalf("last state=%s", got)
	}
}

func TestResolveKeepsValidSibling(t *testing.T) {
	p := New(nil, DefaultOptions())
	content := `{"segments":[
		{"start_time":0,"end_time":30,"yt_title":"ok","hook":"h","description":"d"},
		{"start_time":50,"end_time":40,"yt_title":"bad","hook":"h","description":"d"}
	]}`

	res, err := p.ResolveContent(context.Background(), content)
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if len(res.Segments) != 1 || res.Segments[0].Title != "ok" {
		t.Fatalf("segments=%+v", res.Segments)
	}
	if len(res.Rejects) != 1 || res.Rejects[0].Reason != segment.ReasonInvalidRange || res.Rejects[0].Index != 1 {
		t.Fatalf("rejects=%+v", res.Rejects)
	}
}

func TestFenceEquivalence(t *testing.T) {
	p := New(nil, DefaultOptions())
	bare, err := p.ResolveContent(context.Background(), oneSegmentJSON)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	fenced, err := p.ResolveContent(context.Background(), "```json\n"+oneSegmentJSON+"\n```")
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if !reflect.DeepEqual(bare.Segments, fenced.Segments) {
		t.Fatalf("segments differ:\nbare=%+v\nfenced=%+v", bare.Segments, fenced.Segments)
	}
	if !reflect.DeepEqual(bare.Rejects, fenced.Rejects) {
		t.Fatalf("rejects differ")
	}
}

func TestResolveDeterministic(t *testing.T) {
	p := New(nil, DefaultOptions())
	content := `{"segments":[
		{"start_time":"1:05","end_time":"1:35","yt_title":"t","hook":"h","description":"d","platforms":"reels, tiktok"},
		{"start_time":3,"end_time":9,"yt_title":"","hook":"h","description":"d"},
		{"start":3,"end":9,"title":"x","hook":"h","description":"d","duration":2}
	]}`

	first, err1 := p.ResolveContent(context.Background(), content)
	second, err2 := p.ResolveContent(context.Background(), content)
	if err1 != nil || err2 != nil {
		t.Fatalf("errors: %v / %v", err1, err2)
	}
	if first.RunID == second.RunID {
		t.Fatalf("run ids should differ per invocation")
	}
	if !reflect.DeepEqual(first.Segments, second.Segments) {
		t.Fatalf("segments differ")
	}
	if !reflect.DeepEqual(first.Rejects, second.Rejects) {
		t.Fatalf("rejects differ")
	}
	if !reflect.DeepEqual(first.Warnings, second.Warnings) {
		t.Fatalf("warnings differ")
	}
	if len(first.Segments) != 2 || len(first.Rejects) != 1 {
		t.Fatalf("segments=%d rejects=%d", len(first.Segments), len(first.Rejects))
	}
	if got := first.Segments[0].Platforms; !reflect.DeepEqual(got, []string{segment.PlatformInstagramReels, segment.PlatformTikTok}) {
		t.Fatalf("platforms=%v", got)
	}
	if first.Segments[1].Duration != 6 || len(first.Warnings) != 1 || first.Warnings[0].Code != segment.WarnDurationMismatch {
		t.Fatalf("duration=%v warnings=%+v", first.Segments[1].Duration, first.Warnings)
	}
}

func TestDecodeErrorFallsBackToText(t *testing.T) {
	p := New(nil, DefaultOptions())
	// Looks like JSON but is not; the text tiers still find the block.
	content := "{\nSubtopic 1: Intro\nTitle: Intro\nStart: 0:05\nEnd: 0:35\nHook: Look\nDescription: Why\n}"

	res, err := p.ResolveContent(context.Background(), content)
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if res.Outcome != OutcomeRecovered || res.Tier != TierTemplate {
		t.Fatalf("outcome=%s tier=%s", res.Outcome, res.Tier)
	}
	if res.Attempts[0].Tier != TierStructured || res.Attempts[0].Error == "" {
		t.Fatalf("first attempt=%+v, want failed structured decode", res.Attempts[0])
	}
	seg := res.Segments[0]
	if seg.StartTime != 5 || seg.EndTime != 35 || seg.Duration != 30 {
		t.Fatalf("segment=%+v", seg)
	}
	if res.Salvaged {
		t.Fatalf("decode error path is not a salvage pass")
	}
}

func TestSalvageAfterEmptyDecode(t *testing.T) {
	p := New(nil, DefaultOptions())
	// The only JSON record is invalid, but the raw text can still be recovered by the line scanner.
	content := "Segment 1: Recovered\nstart_time: 12\nend_time: 42\nhook: Hey\ndescription: Body\n" +
		"```json\n{\"segments\":[{\"start_time\":5}]}\n```"

	res, err := p.ResolveContent(context.Background(), content)
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if !res.Salvaged {
		t.Fatalf("expected salvage pass")
	}
	if res.Outcome != OutcomeRecovered {
		t.Fatalf("outcome=%s", res.Outcome)
	}
	if len(res.Segments) != 1 || res.Segments[0].Title != "Recovered" || res.Segments[0].StartTime != 12 {
		t.Fatalf("segments=%+v", res.Segments)
	}
	if len(res.Rejects) == 0 || res.Rejects[0].Tier != string(TierStructured) {
		t.Fatalf("want the structured reject kept, got %+v", res.Rejects)
	}
	wantStates := []State{StateInit, StateExtracted, StateDecoded, StateParsedFallback, StateValidated}
	if !reflect.DeepEqual(res.States, wantStates) {
		t.Fatalf("states=%v", res.States)
	}
}

func TestEnvelopeErrorsAreFatal(t *testing.T) {
	p := New(nil, DefaultOptions())
	cases := map[string]string{
		"not json":        `garbage`,
		"no choices":      `{}`,
		"empty choices":   `{"choices":[]}`,
		"missing message": `{"choices":[{}]}`,
		"missing content": `{"choices":[{"message":{"role":"assistant"}}]}`,
		"blank content":   `{"choices":[{"message":{"content":"   "}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := p.ResolveRaw(context.Background(), []byte(body))
			if !errors.Is(err, ErrEnvelope) {
				t.Fatalf("err=%v, want envelope error", err)
			}
			if IsTerminal(err) {
				t.Fatalf("envelope error must not read as terminal")
			}
			if res.Outcome != OutcomeFailed || len(res.Attempts) != 0 {
				t.Fatalf("result=%+v", res)
			}
		})
	}
}

func TestPlaceholderPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.TerminalPolicy = PolicySynthesizePlaceholder
	opts.PlaceholderWindow = 45
	p := New(nil, opts)

	res, err := p.ResolveContent(context.Background(), "nothing useful here")
	if err != nil {
		t.Fatalf("placeholder policy should not return an error: %v", err)
	}
	if res.Outcome != OutcomePlaceholder || res.Tier != TierPlaceholder {
		t.Fatalf("outcome=%s tier=%s", res.Outcome, res.Tier)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("segments=%+v", res.Segments)
	}
	seg := res.Segments[0]
	if seg.StartTime != 0 || seg.EndTime != 45 || seg.Duration != 45 {
		t.Fatalf("segment=%+v", seg)
	}
	if !reflect.DeepEqual(seg.Platforms, segment.SupportedPlatforms()) {
		t.Fatalf("platforms=%v", seg.Platforms)
	}
}

func TestRecorderSeesTierOutcome(t *testing.T) {
	rec := newCountingRecorder()
	opts := DefaultOptions()
	opts.Recorder = rec
	p := New(nil, opts)

	content := "Subtopic 1\nhook: b\nstart: 1\nend: 4\ntitle: a\ndescription: c\nbogus line\n"
	res, err := p.ResolveContent(context.Background(), content)
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if res.Tier != TierLineScan {
		t.Fatalf("tier=%s, want text_lines", res.Tier)
	}
	if rec.resolutions["recovered/text_lines"] != 1 {
		t.Fatalf("resolutions=%v", rec.resolutions)
	}
	if rec.issues[string(TierLineScan)] != 1 {
		t.Fatalf("issues=%v", rec.issues)
	}
}

func TestParseTerminalPolicy(t *testing.T) {
	for in, want := range map[string]TerminalPolicy{
		"":                       PolicyFailEmpty,
		"fail_empty":             PolicyFailEmpty,
		"SYNTHESIZE_PLACEHOLDER": PolicySynthesizePlaceholder,
	} {
		got, err := ParseTerminalPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseTerminalPolicy(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseTerminalPolicy("blend"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

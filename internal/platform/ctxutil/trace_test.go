package ctxutil

import (
	"context"
	"testing"
)

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	if GetTraceData(ctx) != nil || RequestID(ctx) != "" {
		t.Fatalf("empty context should carry no trace data")
	}
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t1", RequestID: "r1"})
	if td := GetTraceData(ctx); td == nil || td.TraceID != "t1" {
		t.Fatalf("trace data=%+v", td)
	}
	if got := RequestID(ctx); got != "r1" {
		t.Fatalf("RequestID=%q", got)
	}
}

package resolve

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
)

const defaultBatchLimit = 4

// BatchItem is one resolved entry of a batch, in input order.
type BatchItem struct {
	Index  int     `json:"index"`
	Result *Result `json:"result"`
	Err    error   `json:"-"`
}

func (b BatchItem) MarshalJSON() ([]byte, error) {
	type wire struct {
		Index  int     `json:"index"`
		Result *Result `json:"result"`
		Error  string  `json:"error,omitempty"`
	}
	w := wire{Index: b.Index, Result: b.Result}
	if b.Err != nil {
		w.Error = b.Err.Error()
	}
	return json.Marshal(w)
}

// ResolveBatch resolves independent raw envelopes concurrently with at most
// limit in flight. One item's failure never affects the others.
func (p *Pipeline) ResolveBatch(ctx context.Context, envelopes []json.RawMessage, limit int) []BatchItem {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	items := make([]BatchItem, len(envelopes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, body := range envelopes {
		g.Go(func() error {
			items[i].Index = i
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := p.ResolveRaw(gctx, body)
			items[i].Result = res
			items[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return items
}

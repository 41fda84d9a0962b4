package translator

import (
	"context"
	"sort"
	"time"

	"mtd/pkg/types"
)

// TranslateBatch translates texts in input order. Oversized inputs are
// chunked to MaxBatchSize; within a chunk texts are processed shortest
// first for padding efficiency, then results are restored to input order.
// Every result carries its original batch index.
func (e *Executor) TranslateBatch(ctx context.Context, req types.BatchTranslateRequest) []types.TranslateResult {
	opts := e.options()
	size := opts.MaxBatchSize
	if size < 1 {
		size = 8
	}

	results := make([]types.TranslateResult, len(req.Texts))
	for lo := 0; lo < len(req.Texts); lo += size {
		hi := lo + size
		if hi > len(req.Texts) {
			hi = len(req.Texts)
		}
		e.translateChunk(ctx, req, lo, hi, results)
	}
	for i := range results {
		results[i].BatchIndex = i
	}
	return results
}

func (e *Executor) translateChunk(ctx context.Context, req types.BatchTranslateRequest, lo, hi int, results []types.TranslateResult) {
	idx := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return len(req.Texts[idx[a]]) < len(req.Texts[idx[b]])
	})
	for _, i := range idx {
		results[i] = e.Translate(ctx, types.TranslateRequest{
			Text:    req.Texts[i],
			SrcLang: req.SrcLang,
			TgtLang: req.TgtLang,
		})
	}
}

// Future is the handle returned by TranslateAsync.
type Future struct {
	done chan struct{}
	res  types.TranslateResult
}

// Wait blocks until the result is available or the context expires.
func (f *Future) Wait(ctx context.Context) (types.TranslateResult, error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return types.TranslateResult{}, ctx.Err()
	}
}

// TryResult returns the result without blocking; ok is false while the
// translation is still running.
func (f *Future) TryResult() (types.TranslateResult, bool) {
	select {
	case <-f.done:
		return f.res, true
	default:
		return types.TranslateResult{}, false
	}
}

// TranslateAsync runs Translate on its own goroutine and returns a future.
// The contract is identical to the synchronous call.
func (e *Executor) TranslateAsync(ctx context.Context, req types.TranslateRequest) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		start := time.Now()
		f.res = e.Translate(ctx, req)
		if f.res.ProcessingTime == 0 {
			f.res.ProcessingTime = time.Since(start)
		}
		close(f.done)
	}()
	return f
}

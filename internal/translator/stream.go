package translator

import (
	"context"

	"mtd/internal/recovery"
	"mtd/pkg/types"
)

// StartStreaming opens a streaming session for the pair and returns the
// session id. The model for the pair is loaded eagerly so the first chunk
// does not pay the load latency.
func (e *Executor) StartStreaming(ctx context.Context, sessionID, src, tgt string) (string, error) {
	pair, err := types.NewLanguagePair(src, tgt)
	if err != nil {
		return "", recovery.New(recovery.CatConfigError, err.Error(), recovery.Context{
			Component: "translator", Operation: "start_streaming",
		})
	}
	if !e.mgr.Registry().Supports(pair) {
		return "", recovery.New(recovery.CatConfigError, "unsupported language pair: "+pair.Key(), recovery.Context{
			Component: "translator", Operation: "start_streaming", Pair: pair.Key(),
		})
	}
	if err := e.mgr.Load(ctx, pair); err != nil {
		return "", err
	}
	id := e.sessions.start(sessionID, pair)
	e.log.Debug().Str("session", id).Str("pair", pair.Key()).Msg("streaming session opened")
	return id, nil
}

// AddStreamingText appends a chunk and translates the rolling context plus
// chunk. The result is partial unless the chunk is marked complete.
func (e *Executor) AddStreamingText(ctx context.Context, sessionID, text string, isComplete bool) types.TranslateResult {
	pair, input, ok := e.sessions.append(sessionID, text)
	if !ok {
		return types.TranslateResult{
			SessionID:    sessionID,
			Success:      false,
			ErrorMessage: "unknown streaming session: " + sessionID,
		}
	}

	res := e.Translate(ctx, types.TranslateRequest{
		Text:      input,
		SrcLang:   pair.Src,
		TgtLang:   pair.Tgt,
		SessionID: sessionID,
	})
	res.IsPartial = !isComplete
	res.IsStreamingComplete = isComplete
	if res.Success {
		e.sessions.recordPartial(sessionID, res.TranslatedText)
	}
	return res
}

// FinalizeStreaming translates the full accumulated text, closes the
// session and returns a non-partial result.
func (e *Executor) FinalizeStreaming(ctx context.Context, sessionID string) types.TranslateResult {
	pair, text, chunks, ok := e.sessions.finalize(sessionID)
	if !ok {
		return types.TranslateResult{
			SessionID:    sessionID,
			Success:      false,
			ErrorMessage: "unknown streaming session: " + sessionID,
		}
	}
	res := e.Translate(ctx, types.TranslateRequest{
		Text:      text,
		SrcLang:   pair.Src,
		TgtLang:   pair.Tgt,
		SessionID: sessionID,
	})
	res.IsPartial = false
	res.IsStreamingComplete = true
	e.log.Debug().Str("session", sessionID).Int("chunks", chunks).Msg("streaming session finalized")
	return res
}

// CancelStreaming drops the session. Any in-flight chunk runs to completion
// but its result is discarded by the caller.
func (e *Executor) CancelStreaming(sessionID string) bool {
	ok := e.sessions.cancel(sessionID)
	if ok {
		e.log.Debug().Str("session", sessionID).Msg("streaming session cancelled")
	}
	return ok
}

package translator

import (
	"context"
	"testing"
	"time"

	"mtd/internal/models"
	"mtd/pkg/types"
)

func TestStreamingLifecycle(t *testing.T) {
	e := newTestExecutor(t, &models.SimBackend{}, testOptions())
	if err := e.Initialize(context.Background(), "en", "es"); err != nil {
		t.Fatal(err)
	}

	id, err := e.StartStreaming(context.Background(), "", "en", "es")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	res := e.AddStreamingText(context.Background(), id, "hello", false)
	if !res.Success {
		t.Fatalf("chunk failed: %s", res.ErrorMessage)
	}
	if !res.IsPartial || res.IsStreamingComplete {
		t.Errorf("partial flags wrong: partial=%v complete=%v", res.IsPartial, res.IsStreamingComplete)
	}
	if res.SessionID != id {
		t.Errorf("session id = %q, want %q", res.SessionID, id)
	}

	res = e.AddStreamingText(context.Background(), id, "world", true)
	if res.IsPartial || !res.IsStreamingComplete {
		t.Errorf("final chunk flags wrong: partial=%v complete=%v", res.IsPartial, res.IsStreamingComplete)
	}

	final := e.FinalizeStreaming(context.Background(), id)
	if !final.Success {
		t.Fatalf("finalize failed: %s", final.ErrorMessage)
	}
	if final.IsPartial || !final.IsStreamingComplete {
		t.Error("finalize must return a complete, non-partial result")
	}
	if e.sessions.len() != 0 {
		t.Errorf("sessions = %d after finalize, want 0", e.sessions.len())
	}
}

func TestStreamingAccumulation(t *testing.T) {
	st := newSessionStore(time.Minute)
	pair, _ := types.NewLanguagePair("en", "es")
	id := st.start("s1", pair)

	if _, input, ok := st.append(id, "hello"); !ok || input != "hello" {
		t.Fatalf("first chunk input = %q ok=%v", input, ok)
	}
	st.recordPartial(id, "Hola")
	if _, input, ok := st.append(id, " world"); !ok || input != "Hola world" {
		t.Fatalf("second chunk input = %q ok=%v", input, ok)
	}
	st.recordPartial(id, "Hola mundo")
	st.recordPartial(id, "tres")
	st.recordPartial(id, "cuatro")

	_, input, _ := st.append(id, " again")
	// Context buffer keeps only the newest three partials.
	if input != "Hola mundo tres cuatro again" {
		t.Errorf("context input = %q", input)
	}

	_, text, chunks, ok := st.finalize(id)
	if !ok || text != "hello world again" {
		t.Errorf("accumulated = %q ok=%v", text, ok)
	}
	if chunks != 3 {
		t.Errorf("chunks = %d, want 3", chunks)
	}
}

func TestStreamingAccumulationIsRawConcatenation(t *testing.T) {
	st := newSessionStore(time.Minute)
	pair, _ := types.NewLanguagePair("en", "es")
	id := st.start("s1", pair)

	// Chunks carry their own spacing and punctuation; the store must not
	// inject separators of its own.
	for _, chunk := range []string{"Hello,", " world", "! How", " are you?"} {
		if _, _, ok := st.append(id, chunk); !ok {
			t.Fatalf("append(%q) failed", chunk)
		}
	}
	_, text, _, ok := st.finalize(id)
	if !ok {
		t.Fatal("finalize failed")
	}
	if text != "Hello, world! How are you?" {
		t.Errorf("accumulated = %q, want %q", text, "Hello, world! How are you?")
	}
}

func TestStreamingUnknownSession(t *testing.T) {
	e := newTestExecutor(t, &models.SimBackend{}, testOptions())
	if err := e.Initialize(context.Background(), "en", "es"); err != nil {
		t.Fatal(err)
	}
	res := e.AddStreamingText(context.Background(), "nope", "hello", false)
	if res.Success {
		t.Fatal("unknown session must fail")
	}
	res = e.FinalizeStreaming(context.Background(), "nope")
	if res.Success {
		t.Fatal("finalize of unknown session must fail")
	}
	if e.CancelStreaming("nope") {
		t.Error("cancel of unknown session must report false")
	}
}

func TestStreamingCancel(t *testing.T) {
	e := newTestExecutor(t, &models.SimBackend{}, testOptions())
	if err := e.Initialize(context.Background(), "en", "es"); err != nil {
		t.Fatal(err)
	}
	id, err := e.StartStreaming(context.Background(), "sess-1", "en", "es")
	if err != nil {
		t.Fatal(err)
	}
	if id != "sess-1" {
		t.Errorf("id = %q, want caller-supplied id", id)
	}
	e.AddStreamingText(context.Background(), id, "hello", false)
	if !e.CancelStreaming(id) {
		t.Fatal("cancel failed")
	}
	if e.sessions.len() != 0 {
		t.Error("session not removed by cancel")
	}
}

func TestStreamingIdleReap(t *testing.T) {
	st := newSessionStore(10 * time.Millisecond)
	pair, _ := types.NewLanguagePair("en", "es")
	st.start("old", pair)
	time.Sleep(30 * time.Millisecond)
	st.start("fresh", pair)
	if _, _, ok := st.append("old", "late chunk"); ok {
		t.Error("idle session should have been reaped")
	}
	if _, _, ok := st.append("fresh", "chunk"); !ok {
		t.Error("fresh session must survive the reap")
	}
}

func TestStreamingUnsupportedPair(t *testing.T) {
	e := newTestExecutor(t, &models.SimBackend{}, testOptions())
	if err := e.Initialize(context.Background(), "en", "es"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.StartStreaming(context.Background(), "", "de", "es"); err == nil {
		t.Fatal("unsupported pair must be rejected at session start")
	}
}

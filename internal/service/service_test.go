package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mtd/internal/config"
	"mtd/internal/langid"
	"mtd/internal/models"
	"mtd/internal/quality"
	"mtd/internal/recovery"
	"mtd/internal/telemetry"
	"mtd/internal/translator"
	"mtd/pkg/types"
)

func writeModelDir(t *testing.T, root, dir string) {
	t.Helper()
	p := filepath.Join(root, dir)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"model.bin", "vocab.yml", "config.yml"} {
		if err := os.WriteFile(filepath.Join(p, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestService(t *testing.T) (*Service, *telemetry.Store) {
	t.Helper()
	root := t.TempDir()
	writeModelDir(t, root, "en-es")
	writeModelDir(t, root, "es-en")

	reg, err := models.NewRegistry(root, []string{"en", "es"}, map[string][]string{
		"en": {"es"},
		"es": {"en"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mgr := models.NewManager(models.ManagerConfig{
		Registry: reg,
		Backend:  &models.SimBackend{},
	}, zerolog.Nop())
	t.Cleanup(mgr.Close)

	engine := recovery.NewEngine(recovery.Config{EnableRetry: true}, recovery.Hooks{
		FallbackToCPU: mgr.FallbackToCPU,
		ReloadModel:   mgr.Reload,
	}, zerolog.Nop())
	assessor := quality.NewAssessor(config.QualityConfig{High: 0.8, Medium: 0.6, Low: 0.4}, zerolog.Nop())

	exec := translator.New(mgr, engine, assessor, nil, translator.Options{
		MaxBatchSize:       4,
		SessionTimeout:     time.Minute,
		CacheEnabled:       true,
		MaxCacheSize:       8,
		TranslationTimeout: time.Second,
		BeamSize:           4,
	}, zerolog.Nop())
	if err := exec.Initialize(context.Background(), "en", "es"); err != nil {
		t.Fatal(err)
	}

	detector := langid.NewDetector([]string{"en", "es"}, zerolog.Nop())
	tel := telemetry.NewStore(0)
	return New(exec, detector, mgr, tel), tel
}

func TestServiceTranslateRecordsTelemetry(t *testing.T) {
	svc, tel := newTestService(t)
	res := svc.Translate(context.Background(), types.TranslateRequest{Text: "Hello, how are you?", SrcLang: "en", TgtLang: "es"})
	if !res.Success {
		t.Fatalf("translate failed: %s", res.ErrorMessage)
	}
	if _, ok := tel.Latest(telemetry.PrefixMT + "translate_ms"); !ok {
		t.Error("translate latency not recorded")
	}
	if _, ok := tel.Latest(telemetry.PrefixMT + "confidence"); !ok {
		t.Error("confidence not recorded")
	}
}

func TestServiceTranslateDetectsSource(t *testing.T) {
	svc, _ := newTestService(t)
	res := svc.Translate(context.Background(), types.TranslateRequest{
		Text:    "Hello my friend, how are you doing today?",
		TgtLang: "es",
	})
	if !res.Success {
		t.Fatalf("translate failed: %s", res.ErrorMessage)
	}
	if res.SrcLang != "en" {
		t.Errorf("src = %q", res.SrcLang)
	}
}

func TestServiceStatusUptime(t *testing.T) {
	svc, _ := newTestService(t)
	st := svc.Status()
	if st.UptimeSeconds < 0 {
		t.Errorf("uptime = %d", st.UptimeSeconds)
	}
	if st.ServerTimeUnix == 0 {
		t.Error("server time missing")
	}
	if st.MaxModels == 0 {
		t.Error("manager stats not merged")
	}
}

func TestServicePairs(t *testing.T) {
	svc, _ := newTestService(t)
	pairs := svc.Pairs()
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d", len(pairs))
	}
	v := svc.ValidatePair("en", "es")
	if !v.Valid {
		t.Errorf("en->es should validate: %+v", v)
	}
	v = svc.ValidatePair("en", "xx")
	if v.Valid {
		t.Error("en->xx should not validate")
	}
}

func TestServiceTelemetryJSON(t *testing.T) {
	svc, tel := newTestService(t)
	tel.Record(telemetry.PrefixMT+"translate_ms", 12.5, "ms")
	b, err := svc.TelemetryJSON(5*time.Minute, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "mt.translate_ms") {
		t.Errorf("export missing metric: %s", b)
	}
}

func TestServiceStreaming(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.StartStreaming(context.Background(), "", "en", "es")
	if err != nil {
		t.Fatal(err)
	}
	res := svc.AddStreamingText(context.Background(), id, "hello", false)
	if !res.Success || !res.IsPartial {
		t.Fatalf("chunk result: %+v", res)
	}
	final := svc.FinalizeStreaming(context.Background(), id)
	if !final.Success || !final.IsStreamingComplete {
		t.Fatalf("final result: %+v", final)
	}
	if svc.CancelStreaming(id) {
		t.Error("finalized session should be gone")
	}
}

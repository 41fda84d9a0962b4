package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mtd/internal/config"
)

func TestDefaultPairStableOrder(t *testing.T) {
	cfg := config.Defaults()
	cfg.MT.LanguagePairs = map[string][]string{
		"fr": {"en"},
		"de": {"en"},
		"en": {"es", "de"},
	}
	src, tgt := defaultPair(cfg)
	if src != "de" || tgt != "en" {
		t.Fatalf("pair = %s->%s", src, tgt)
	}
}

func TestDefaultPairEmptyConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.MT.LanguagePairs = nil
	src, tgt := defaultPair(cfg)
	if src != "en" || tgt != "es" {
		t.Fatalf("pair = %s->%s", src, tgt)
	}
}

func TestCheckConfigOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtd.yaml")
	body := "addr: \":9090\"\nlog_level: info\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"check-config", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("check-config: %v (%s)", err, out.String())
	}
	if !strings.Contains(out.String(), "config ok") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestCheckConfigMissingFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"check-config", "--config", "/nonexistent/mtd.yaml"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDetectCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"detect", "Hello my good friend, how are you doing today?"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"detected_language": "en"`) {
		t.Fatalf("out = %s", out.String())
	}
}

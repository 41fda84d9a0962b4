package translator

import (
	"fmt"
	"testing"
	"time"

	"mtd/pkg/types"
)

func mustPair(t *testing.T, src, tgt string) types.LanguagePair {
	t.Helper()
	p, err := types.NewLanguagePair(src, tgt)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCachePutGet(t *testing.T) {
	c := NewCache(true, 10)
	pair := mustPair(t, "en", "es")

	if _, ok := c.Get(pair, "hello"); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Put(pair, "hello", types.TranslateResult{TranslatedText: "Hola", Success: true})
	res, ok := c.Get(pair, "hello")
	if !ok || res.TranslatedText != "Hola" {
		t.Fatalf("get = %+v ok=%v", res, ok)
	}
	if c.HitRate() != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", c.HitRate())
	}
}

func TestCacheKeyIncludesPair(t *testing.T) {
	c := NewCache(true, 10)
	c.Put(mustPair(t, "en", "es"), "hello", types.TranslateResult{TranslatedText: "Hola"})
	if _, ok := c.Get(mustPair(t, "en", "de"), "hello"); ok {
		t.Error("entry leaked across pairs")
	}
}

func TestCacheEvictsOldestQuarter(t *testing.T) {
	c := NewCache(true, 8)
	pair := mustPair(t, "en", "es")
	for i := 0; i < 8; i++ {
		c.Put(pair, fmt.Sprintf("text-%d", i), types.TranslateResult{TranslatedText: "x"})
		time.Sleep(time.Millisecond)
	}
	// Ninth entry pushes the cache over budget; the two oldest go.
	c.Put(pair, "text-8", types.TranslateResult{TranslatedText: "x"})
	if got := c.Len(); got != 7 {
		t.Fatalf("len = %d, want 7 after evicting a quarter of 9", got)
	}
	if _, ok := c.Get(pair, "text-0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get(pair, "text-8"); !ok {
		t.Error("newest entry must survive eviction")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(false, 10)
	pair := mustPair(t, "en", "es")
	c.Put(pair, "hello", types.TranslateResult{TranslatedText: "Hola"})
	if _, ok := c.Get(pair, "hello"); ok {
		t.Error("disabled cache must not serve hits")
	}
	if c.Len() != 0 {
		t.Error("disabled cache must not store entries")
	}
}

func TestCacheReconfigureShrinks(t *testing.T) {
	c := NewCache(true, 10)
	pair := mustPair(t, "en", "es")
	for i := 0; i < 10; i++ {
		c.Put(pair, fmt.Sprintf("text-%d", i), types.TranslateResult{})
		time.Sleep(time.Millisecond)
	}
	c.Reconfigure(true, 4)
	if got := c.Len(); got != 4 {
		t.Errorf("len = %d after shrink, want 4", got)
	}
	c.Reconfigure(false, 4)
	if c.Len() != 0 {
		t.Error("disable must clear")
	}
}

func TestCacheCloneIsolation(t *testing.T) {
	c := NewCache(true, 10)
	pair := mustPair(t, "en", "es")
	c.Put(pair, "hello", types.TranslateResult{
		TranslatedText:  "Hola",
		WordConfidences: []float64{0.9},
		Quality:         &types.QualityMetrics{Overall: 0.8, Issues: []string{"a"}},
	})
	res, _ := c.Get(pair, "hello")
	res.WordConfidences[0] = 0
	res.Quality.Overall = 0

	again, _ := c.Get(pair, "hello")
	if again.WordConfidences[0] != 0.9 || again.Quality.Overall != 0.8 {
		t.Error("cached entry mutated through a returned copy")
	}
}

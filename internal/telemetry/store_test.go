package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRecordAndStats(t *testing.T) {
	s := NewStore(100)
	for i := 1; i <= 10; i++ {
		s.Record("mt.translate_ms", float64(i*10), "ms")
	}
	st := s.Stats("mt.translate_ms", time.Minute)
	if st.Count != 10 {
		t.Fatalf("count = %d, want 10", st.Count)
	}
	if st.Min != 10 || st.Max != 100 {
		t.Errorf("min/max = %v/%v, want 10/100", st.Min, st.Max)
	}
	if st.Mean != 55 {
		t.Errorf("mean = %v, want 55", st.Mean)
	}
	if st.Median != 50 {
		t.Errorf("median = %v, want 50", st.Median)
	}
	if st.P95 != 100 || st.P99 != 100 {
		t.Errorf("p95/p99 = %v/%v, want 100/100", st.P95, st.P99)
	}
	if st.Unit != "ms" {
		t.Errorf("unit = %q, want ms", st.Unit)
	}
}

func TestStatsEmptyWindow(t *testing.T) {
	s := NewStore(100)
	if st := s.Stats("missing", time.Minute); st.Count != 0 {
		t.Errorf("stats for unknown metric = %+v", st)
	}
}

func TestRingBounded(t *testing.T) {
	s := NewStore(5)
	for i := 0; i < 20; i++ {
		s.Record("m", float64(i), "")
	}
	points := s.Points("m", time.Minute)
	if len(points) != 5 {
		t.Fatalf("points = %d, want 5", len(points))
	}
	if points[0].Value != 15 {
		t.Errorf("oldest retained = %v, want 15", points[0].Value)
	}
}

func TestTimestampsMonotonic(t *testing.T) {
	s := NewStore(100)
	for i := 0; i < 50; i++ {
		s.Record("m", 1, "")
	}
	points := s.Points("m", time.Minute)
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			t.Fatalf("timestamps not monotonic at %d", i)
		}
	}
}

func TestLatest(t *testing.T) {
	s := NewStore(10)
	if _, ok := s.Latest("m"); ok {
		t.Fatal("latest on empty metric")
	}
	s.Record("m", 1, "")
	s.Record("m", 2, "")
	p, ok := s.Latest("m")
	if !ok || p.Value != 2 {
		t.Errorf("latest = %+v ok=%v", p, ok)
	}
}

func TestTimerRecords(t *testing.T) {
	s := NewStore(10)
	tm := s.StartTimer("mt.translate_ms")
	time.Sleep(5 * time.Millisecond)
	tm.Stop()
	tm.Stop() // second stop must not double-record

	points := s.Points("mt.translate_ms", time.Minute)
	if len(points) != 1 {
		t.Fatalf("points = %d, want 1", len(points))
	}
	if points[0].Value < 4 {
		t.Errorf("elapsed = %vms, want >= 4", points[0].Value)
	}
	if points[0].Unit != "ms" {
		t.Errorf("unit = %q", points[0].Unit)
	}
}

func TestExportJSON(t *testing.T) {
	s := NewStore(10)
	s.Record("pipeline.latency_ms", 12, "ms")
	b, err := s.ExportJSON(time.Minute, true)
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		t.Fatal(err)
	}
	me, ok := snap.Metrics["pipeline.latency_ms"]
	if !ok {
		t.Fatal("metric missing from export")
	}
	if me.Stats.Count != 1 || len(me.Points) != 1 {
		t.Errorf("export = %+v", me)
	}
}

func TestSamplerStartStopIdempotent(t *testing.T) {
	s := NewStore(100)
	sampler := NewSampler(s, nil, 10*time.Millisecond, zerolog.Nop())
	sampler.Start(context.Background())
	sampler.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	sampler.Stop()
	sampler.Stop()

	if len(s.Points("host.memory_used_mb", time.Minute)) == 0 {
		t.Error("sampler recorded no host memory samples")
	}
}

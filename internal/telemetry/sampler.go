package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"mtd/internal/gpu"
)

const defaultSampleInterval = time.Second

// Sampler records host and GPU resource metrics on a fixed interval. Start
// is idempotent; Stop cancels the worker and waits for it to drain.
type Sampler struct {
	store    *Store
	facade   *gpu.Facade
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler builds a sampler. facade may be nil when the build has no GPU
// support; GPU metrics are then skipped.
func NewSampler(store *Store, facade *gpu.Facade, interval time.Duration, log zerolog.Logger) *Sampler {
	if interval <= 0 {
		interval = defaultSampleInterval
	}
	return &Sampler{
		store:    store,
		facade:   facade,
		interval: interval,
		log:      log.With().Str("component", "telemetry").Logger(),
	}
}

// Start launches the background worker. Calling Start on a running sampler
// is a no-op.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	s.log.Info().Dur("interval", s.interval).Msg("resource sampler started")
}

// Stop cancels the worker and waits for the in-flight sample to finish.
// Safe to call on a stopped sampler.
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info().Msg("resource sampler stopped")
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.sampleOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce()
		}
	}
}

func (s *Sampler) sampleOnce() {
	if vm, err := mem.VirtualMemory(); err == nil {
		s.store.Record("host.memory_used_mb", float64(vm.Used)/(1024*1024), "MB")
		s.store.Record("host.memory_used_pct", vm.UsedPercent, "%")
	} else {
		s.log.Debug().Err(err).Msg("host memory sample failed")
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.store.Record("host.cpu_pct", pcts[0], "%")
	} else if err != nil {
		s.log.Debug().Err(err).Msg("host cpu sample failed")
	}

	if s.facade == nil || !s.facade.IsAvailable() {
		return
	}
	id := s.facade.ActiveDevice()
	if free, total, err := s.facade.MemoryInfo(id); err == nil {
		s.store.Record("gpu.memory_used_mb", float64(total-free), "MB")
	}
	// Monitoring probes return -1 when the runtime cannot report them.
	if v := s.facade.Utilization(id); v >= 0 {
		s.store.Record("gpu.utilization_pct", v, "%")
	}
	if v := s.facade.Temperature(id); v >= 0 {
		s.store.Record("gpu.temperature_c", v, "C")
	}
	if v := s.facade.Power(id); v >= 0 {
		s.store.Record("gpu.power_w", v, "W")
	}
}

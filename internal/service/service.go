// Package service wires the translation executor, language detector,
// model manager and telemetry store behind the HTTP API surface.
package service

import (
	"context"
	"time"

	"mtd/internal/langid"
	"mtd/internal/models"
	"mtd/internal/telemetry"
	"mtd/internal/translator"
	"mtd/pkg/types"
)

type Service struct {
	exec     *translator.Executor
	detector *langid.Detector
	mgr      *models.Manager
	tel      *telemetry.Store
	started  time.Time
}

func New(exec *translator.Executor, detector *langid.Detector, mgr *models.Manager, tel *telemetry.Store) *Service {
	return &Service{
		exec:     exec,
		detector: detector,
		mgr:      mgr,
		tel:      tel,
		started:  time.Now(),
	}
}

func (s *Service) Translate(ctx context.Context, req types.TranslateRequest) types.TranslateResult {
	// Fill in the source language from the detector when the caller omits it.
	if req.SrcLang == "" && s.detector != nil {
		det := s.detector.DetectText(req.Text)
		if det.IsReliable {
			req.SrcLang = det.DetectedLanguage
		} else {
			req.SrcLang = s.detector.FallbackLanguage(det.DetectedLanguage)
		}
	}
	timer := s.tel.StartTimer(telemetry.PrefixMT + "translate_ms")
	res := s.exec.Translate(ctx, req)
	timer.Stop()
	if res.Success {
		s.tel.Record(telemetry.PrefixMT+"confidence", res.Confidence, "score")
	}
	return res
}

func (s *Service) TranslateBatch(ctx context.Context, req types.BatchTranslateRequest) []types.TranslateResult {
	timer := s.tel.StartTimer(telemetry.PrefixMT + "batch_ms")
	defer timer.Stop()
	return s.exec.TranslateBatch(ctx, req)
}

func (s *Service) Detect(text string, samples []float32) types.LanguageDetectionResult {
	timer := s.tel.StartTimer(telemetry.PrefixMT + "detect_ms")
	defer timer.Stop()
	return s.detector.Detect(text, samples)
}

func (s *Service) StartStreaming(ctx context.Context, sessionID, src, tgt string) (string, error) {
	return s.exec.StartStreaming(ctx, sessionID, src, tgt)
}

func (s *Service) AddStreamingText(ctx context.Context, sessionID, text string, isComplete bool) types.TranslateResult {
	timer := s.tel.StartTimer(telemetry.PrefixMT + "stream_chunk_ms")
	defer timer.Stop()
	return s.exec.AddStreamingText(ctx, sessionID, text, isComplete)
}

func (s *Service) FinalizeStreaming(ctx context.Context, sessionID string) types.TranslateResult {
	return s.exec.FinalizeStreaming(ctx, sessionID)
}

func (s *Service) CancelStreaming(sessionID string) bool {
	return s.exec.CancelStreaming(sessionID)
}

func (s *Service) Pairs() []types.PairInfo { return s.mgr.PairInfos() }

func (s *Service) ValidatePair(src, tgt string) types.PairValidation {
	return s.mgr.Validate(src, tgt)
}

func (s *Service) BidirectionalInfo(a, b string) types.BidirectionalInfo {
	return s.mgr.BidirectionalInfo(a, b)
}

func (s *Service) Status() types.StatusResponse {
	st := s.exec.Stats()
	now := time.Now()
	st.UptimeSeconds = int64(now.Sub(s.started).Seconds())
	st.ServerTimeUnix = now.Unix()
	return st
}

func (s *Service) TelemetryJSON(window time.Duration, includePoints bool) ([]byte, error) {
	return s.tel.ExportJSON(window, includePoints)
}

func (s *Service) Ready() bool { return s.exec.IsReady() }

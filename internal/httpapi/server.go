package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mtd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Translate(ctx context.Context, req types.TranslateRequest) types.TranslateResult
	TranslateBatch(ctx context.Context, req types.BatchTranslateRequest) []types.TranslateResult
	Detect(text string, samples []float32) types.LanguageDetectionResult
	StartStreaming(ctx context.Context, sessionID, src, tgt string) (string, error)
	AddStreamingText(ctx context.Context, sessionID, text string, isComplete bool) types.TranslateResult
	FinalizeStreaming(ctx context.Context, sessionID string) types.TranslateResult
	CancelStreaming(sessionID string) bool
	Pairs() []types.PairInfo
	ValidatePair(src, tgt string) types.PairValidation
	BidirectionalInfo(a, b string) types.BidirectionalInfo
	Status() types.StatusResponse
	TelemetryJSON(window time.Duration, includePoints bool) ([]byte, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Post("/translate", func(w http.ResponseWriter, r *http.Request) {
		var req types.TranslateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeJSONError(w, http.StatusBadRequest, "text is required")
			return
		}
		if req.TgtLang == "" {
			writeJSONError(w, http.StatusBadRequest, "tgt_lang is required")
			return
		}
		start := time.Now()
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res := svc.Translate(joinedCtx, req)
		pair := res.SrcLang + "->" + res.TgtLang
		countTranslation(pair, res.Success)
		if requestLogLevel(r) >= LevelInfo {
			logRequest("translate", middleware.GetReqID(r.Context()), pair, http.StatusOK,
				"done in "+time.Since(start).String())
		}
		writeJSON(w, res)
	})

	r.Post("/translate/batch", func(w http.ResponseWriter, r *http.Request) {
		var req types.BatchTranslateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.Texts) == 0 {
			writeJSONError(w, http.StatusBadRequest, "texts is required")
			return
		}
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		results := svc.TranslateBatch(joinedCtx, req)
		writeJSON(w, types.BatchTranslateResponse{Results: results})
	})

	r.Post("/detect", func(w http.ResponseWriter, r *http.Request) {
		var req types.DetectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" && len(req.Samples) == 0 {
			writeJSONError(w, http.StatusBadRequest, "text or samples is required")
			return
		}
		writeJSON(w, svc.Detect(req.Text, req.Samples))
	})

	r.Route("/stream/{id}", func(r chi.Router) {
		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			var req types.StreamStartRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			sessionID, err := svc.StartStreaming(joinedCtx, id, req.SrcLang, req.TgtLang)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]string{"session_id": sessionID})
		})

		r.Post("/text", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			var req types.StreamTextRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if strings.TrimSpace(req.Text) == "" {
				writeJSONError(w, http.StatusBadRequest, "text is required")
				return
			}
			joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			res := svc.AddStreamingText(joinedCtx, id, req.Text, req.IsComplete)
			if !res.Success && strings.Contains(res.ErrorMessage, "unknown streaming session") {
				writeJSONError(w, http.StatusNotFound, res.ErrorMessage)
				return
			}
			writeJSON(w, res)
		})

		r.Post("/finalize", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			res := svc.FinalizeStreaming(joinedCtx, id)
			if !res.Success && strings.Contains(res.ErrorMessage, "unknown streaming session") {
				writeJSONError(w, http.StatusNotFound, res.ErrorMessage)
				return
			}
			writeJSON(w, res)
		})

		r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if !svc.CancelStreaming(id) {
				writeJSONError(w, http.StatusNotFound, "unknown streaming session: "+id)
				return
			}
			writeJSON(w, map[string]string{"session_id": id, "state": "cancelled"})
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.PairsResponse{Pairs: svc.Pairs()})
	})

	r.Get("/pairs/{src}/{tgt}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.ValidatePair(chi.URLParam(r, "src"), chi.URLParam(r, "tgt")))
	})

	r.Get("/pairs/{src}/{tgt}/bidirectional", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.BidirectionalInfo(chi.URLParam(r, "src"), chi.URLParam(r, "tgt")))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		window := 5 * time.Minute
		if v := r.URL.Query().Get("window_minutes"); v != "" {
			if d, err := time.ParseDuration(v + "m"); err == nil && d > 0 {
				window = d
			}
		}
		includePoints := r.URL.Query().Get("points") == "1"
		b, err := svc.TelemetryJSON(window, includePoints)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode telemetry")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSON enforces content type and body limits, decoding into dst.
// Returns false after writing the error response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

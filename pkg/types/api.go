package types

import "time"

// TranslateRequest represents a translation request payload.
type TranslateRequest struct {
	// Required UTF-8 source text.
	// example: Hello, how are you?
	Text string `json:"text" example:"Hello, how are you?"`
	// Source language code. If empty, the server runs language detection.
	// example: en
	SrcLang string `json:"src_lang,omitempty" example:"en"`
	// Required target language code.
	// example: es
	TgtLang string `json:"tgt_lang" example:"es"`
	// Optional streaming session id to attribute the result to.
	SessionID string `json:"session_id,omitempty"`
	// Prefer GPU placement when a device is available.
	// example: true
	PreferGPU bool `json:"prefer_gpu,omitempty" example:"true"`
	// Maximum number of alternative candidates to attach.
	// example: 3
	MaxAlternatives int `json:"max_alternatives,omitempty" example:"3"`
	// Minimum acceptable overall quality before alternatives are generated.
	// example: 0.5
	QualityFloor float64 `json:"quality_floor,omitempty" example:"0.5"`
}

// TranslateResult is the outcome of one translation call. The synchronous
// API always returns a result; failures carry success=false and an error
// message rather than an error.
type TranslateResult struct {
	TranslatedText string  `json:"translated_text"`
	SrcLang        string  `json:"src_lang" example:"en"`
	TgtLang        string  `json:"tgt_lang" example:"es"`
	// Overall confidence in [0,1].
	// example: 0.82
	Confidence      float64         `json:"confidence" example:"0.82"`
	WordConfidences []float64       `json:"word_confidences,omitempty"`
	Alternatives    []Alternative   `json:"alternatives,omitempty"`
	Quality         *QualityMetrics `json:"quality,omitempty"`
	UsedGPU         bool            `json:"used_gpu" example:"false"`
	ProcessingTime  time.Duration   `json:"processing_time_ns" swaggertype:"integer"`
	Success         bool            `json:"success" example:"true"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	SessionID       string          `json:"session_id,omitempty"`
	// True for a streaming result covering only a prefix of the session text.
	IsPartial           bool `json:"is_partial,omitempty"`
	IsStreamingComplete bool `json:"is_streaming_complete,omitempty"`
	// Position of the input within its original batch.
	BatchIndex int `json:"batch_index,omitempty"`
}

// BatchTranslateRequest is the payload for POST /translate/batch.
type BatchTranslateRequest struct {
	Texts   []string `json:"texts"`
	SrcLang string   `json:"src_lang" example:"en"`
	TgtLang string   `json:"tgt_lang" example:"es"`
}

// BatchTranslateResponse wraps ordered batch results.
type BatchTranslateResponse struct {
	Results []TranslateResult `json:"results"`
}

// DetectRequest is the payload for POST /detect.
type DetectRequest struct {
	// Text to classify.
	// example: Hola, ¿cómo estás?
	Text string `json:"text" example:"Hola, ¿cómo estás?"`
	// Optional mono PCM float samples for the audio detection path.
	Samples []float32 `json:"samples,omitempty"`
}

// StreamStartRequest opens a streaming session.
type StreamStartRequest struct {
	SrcLang string `json:"src_lang" example:"en"`
	TgtLang string `json:"tgt_lang" example:"es"`
}

// StreamTextRequest appends a chunk to a streaming session.
type StreamTextRequest struct {
	Text string `json:"text" example:"Hello,"`
	// Marks the chunk as the final one of the utterance.
	IsComplete bool `json:"is_complete,omitempty"`
}

// PairInfo describes one supported language pair for GET /models.
type PairInfo struct {
	Pair LanguagePair `json:"pair"`
	// Whether the model artifact passes integrity validation on disk.
	Available bool      `json:"available"`
	Loaded    bool      `json:"loaded"`
	Placement Placement `json:"placement,omitempty" example:"cpu"`
}

// PairsResponse wraps the list of pairs returned by GET /models.
type PairsResponse struct {
	Pairs []PairInfo `json:"pairs"`
}

// PairValidation is returned by GET /pairs/{src}/{tgt}.
type PairValidation struct {
	Valid                  bool     `json:"valid"`
	SourceSupported        bool     `json:"source_supported"`
	TargetSupported        bool     `json:"target_supported"`
	ModelAvailable         bool     `json:"model_available"`
	ErrorMessage           string   `json:"error_message,omitempty"`
	Suggestions            []string `json:"suggestions,omitempty"`
	DownloadRecommendation string   `json:"download_recommendation,omitempty"`
}

// BidirectionalInfo reports both directions between two languages.
type BidirectionalInfo struct {
	Forward         bool     `json:"forward_supported"`
	Backward        bool     `json:"backward_supported"`
	ForwardOnDisk   bool     `json:"forward_on_disk"`
	BackwardOnDisk  bool     `json:"backward_on_disk"`
	SuggestedPivots []string `json:"suggested_pivots,omitempty"`
}

// ModelStatus summarizes one loaded model handle for GET /status.
type ModelStatus struct {
	// Canonical pair key, e.g. "en->es".
	Pair string `json:"pair" example:"en->es"`
	// Placement of the weights (gpu or cpu).
	Placement string `json:"placement" example:"gpu"`
	// Device id when placed on GPU.
	DeviceID int `json:"device_id,omitempty" example:"0"`
	// Quantization level in use.
	Quant string `json:"quant" example:"fp16"`
	// Estimated weights size in MB.
	SizeMB int `json:"size_mb" example:"640"`
	// Last time the handle served a request (unix seconds).
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Number of requests served by this handle.
	UseCount uint64 `json:"use_count" example:"42"`
	// Requests currently borrowing the handle.
	Borrows int `json:"borrows" example:"1"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Models []ModelStatus `json:"models"`
	// Maximum number of concurrently loaded models.
	MaxModels int `json:"max_models" example:"4"`
	// Total evictions performed to stay under the budget.
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Total model loads.
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// True while the recovery engine holds the system in degraded mode.
	DegradedMode bool `json:"degraded_mode"`
	// Reason the system entered degraded mode, if active.
	DegradedReason string `json:"degraded_reason,omitempty"`
	// Translation cache statistics.
	CacheSize    int     `json:"cache_size" example:"120"`
	CacheHitRate float64 `json:"cache_hit_rate" example:"0.63"`
	// Open streaming sessions.
	Sessions int `json:"sessions" example:"2"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	ServerTimeUnix int64  `json:"server_time_unix" example:"1700000000"`
	Error          string `json:"error,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

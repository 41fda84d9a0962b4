package recovery

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies an error for strategy selection.
type Category string

const (
	CatModelLoad          Category = "MODEL_LOAD"
	CatModelCorrupt       Category = "MODEL_CORRUPT"
	CatGPUFailure         Category = "GPU_FAILURE"
	CatTranslationTimeout Category = "TRANSLATION_TIMEOUT"
	CatTranslationFailure Category = "TRANSLATION_FAILURE"
	CatMemoryExhaustion   Category = "MEMORY_EXHAUSTION"
	CatConfigError        Category = "CONFIG_ERROR"
	CatNetworkError       Category = "NETWORK_ERROR"
	CatUnknown            Category = "UNKNOWN"
)

// Severity orders error gravities.
type Severity int

const (
	SevInfo Severity = iota
	SevWarning
	SevError
	SevCritical
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	case SevCritical:
		return "critical"
	case SevFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Context carries where an error happened. Optional fields stay zero.
type Context struct {
	Component string
	Operation string
	Pair      string
	ModelPath string
	DeviceID  int
	MemMB     int
	Extra     map[string]string
}

// Event is one classified error fed to the engine.
type Event struct {
	Category  Category
	Severity  Severity
	Message   string
	Context   Context
	Timestamp time.Time
}

// Error is the typed error crossing internal boundaries: one base type, one
// category field. The retry loop only retries this type.
type Error struct {
	Category Category
	Severity Severity
	Msg      string
	Ctx      Context
	wrapped  error
}

func (e *Error) Error() string {
	if e.Ctx.Pair != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Category, e.Ctx.Pair, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Msg)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds a typed error with the category's default severity.
func New(cat Category, msg string, ctx Context) *Error {
	return &Error{Category: cat, Severity: defaultSeverity(cat), Msg: msg, Ctx: ctx}
}

// Wrap classifies err by message and keeps it in the chain.
func Wrap(err error, ctx Context) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	cat, sev := Classify(err.Error())
	return &Error{Category: cat, Severity: sev, Msg: err.Error(), Ctx: ctx, wrapped: err}
}

// NewTimeout builds the typed timeout error raised by ExecuteWithTimeout.
func NewTimeout(op string, budget time.Duration) *Error {
	return &Error{
		Category: CatTranslationTimeout,
		Severity: SevWarning,
		Msg:      fmt.Sprintf("%s did not complete within %s", op, budget),
		Ctx:      Context{Operation: op},
	}
}

// AsError extracts the typed error from a chain.
func AsError(err error) (*Error, bool) {
	var te *Error
	ok := errors.As(err, &te)
	return te, ok
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, cat Category) bool {
	te, ok := AsError(err)
	return ok && te.Category == cat
}

// IsTimeout reports whether err is a translation timeout.
func IsTimeout(err error) bool { return IsCategory(err, CatTranslationTimeout) }

// IsModelLoad reports whether err is a model load failure.
func IsModelLoad(err error) bool { return IsCategory(err, CatModelLoad) }

// IsConfigError reports whether err is a configuration error. These require
// user intervention and are never retried.
func IsConfigError(err error) bool { return IsCategory(err, CatConfigError) }

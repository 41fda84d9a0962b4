package models

import (
	"context"

	"mtd/pkg/types"
)

// LoadOptions are passed to the backend when loading a model.
type LoadOptions struct {
	// Devices lists device ids for GPU placement; empty means CPU.
	Devices []int
	// WeightsPtr is the pool block the weights should live in when placed
	// on GPU; 0 for CPU placement.
	WeightsPtr uintptr
	CPUThreads int
	Quant      types.Quantization
}

// TranslateOptions tune one inference call.
type TranslateOptions struct {
	BeamSize    int
	Normalize   bool
	WordPenalty float64
}

// Backend abstracts the NMT inference library behind the narrow
// translate(text, options) -> (text, scores) contract. Implementations
// (a real binding, the dictionary fallback, test fakes) satisfy this
// interface; the manager never sees past it.
type Backend interface {
	// Load opens the model artifact under dir and returns a session bound
	// to the requested placement.
	Load(dir string, opts LoadOptions) (Session, error)
}

// Session is one loaded model. Translate returns outputs aligned with
// inputs and one mean log-probability score per output.
type Session interface {
	Translate(ctx context.Context, inputs []string, opts TranslateOptions) ([]string, []float64, error)
	Close() error
}

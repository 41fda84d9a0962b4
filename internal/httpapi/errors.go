package httpapi

import (
	"encoding/json"
	"net/http"

	"mtd/internal/recovery"
	"mtd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps typed service errors to HTTP status codes.
func statusFor(err error) int {
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	te, ok := recovery.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch te.Category {
	case recovery.CatModelLoad, recovery.CatModelCorrupt:
		return http.StatusNotFound
	case recovery.CatTranslationTimeout:
		return http.StatusRequestTimeout
	case recovery.CatMemoryExhaustion:
		return http.StatusTooManyRequests
	case recovery.CatGPUFailure:
		return http.StatusServiceUnavailable
	case recovery.CatConfigError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeServiceError maps err through statusFor and records backpressure.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("memory")
	}
	writeJSONError(w, status, err.Error())
}

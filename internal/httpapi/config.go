package httpapi

const defaultMaxBodyBytes = 1 << 20

// maxBodyBytes caps JSON request bodies. Batch requests can carry many
// segments, so the cap is configurable; 1 MiB covers typical speech turns.
var maxBodyBytes int64 = defaultMaxBodyBytes

// SetMaxBodyBytes changes the request body cap. Non-positive restores the
// default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBodyBytes
	}
	maxBodyBytes = n
}

// CORS is opt-in; without it the mux carries no CORS middleware at all.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions enables or disables CORS handling. Slices are copied.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

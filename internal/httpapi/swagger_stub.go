//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger is a no-op unless the binary is built with the swagger tag.
func MountSwagger(r chi.Router) {}

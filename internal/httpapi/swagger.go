//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const specName = "mtd"

var apiSpec = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "mtd API",
	Description:      "HTTP API for real-time machine translation.",
	InfoInstanceName: specName,
	SwaggerTemplate:  swaggerTemplate,
}

func init() {
	swag.Register(specName, apiSpec)
}

// MountSwagger serves the swagger UI at /swagger/ when built with -tags=swagger.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.InstanceName(specName),
		httpSwagger.URL("/swagger/doc.json"),
	))
}

const swaggerTemplate = `{
  "schemes": {{ marshal .Schemes }},
  "swagger": "2.0",
  "info": {
    "title": "{{ .Title }}",
    "description": "{{ escape .Description }}",
    "version": "{{ .Version }}"
  },
  "basePath": "{{ .BasePath }}",
  "paths": {
    "/translate": {
      "post": {
        "summary": "Translate a single text",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "responses": {"200": {"description": "translation result"}}
      }
    },
    "/translate/batch": {
      "post": {
        "summary": "Translate a batch of texts",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "responses": {"200": {"description": "batch results"}}
      }
    },
    "/detect": {
      "post": {
        "summary": "Detect the language of a text or audio sample",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "responses": {"200": {"description": "detection result"}}
      }
    },
    "/status": {
      "get": {
        "summary": "Service status",
        "produces": ["application/json"],
        "responses": {"200": {"description": "status"}}
      }
    }
  }
}`

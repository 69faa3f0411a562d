// Package swaggerkit provides helpers to mount Swagger UI and JSON spec
package swaggerkit

import (
	"net/http"

	phttp "leadfunnel/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SpecMutator adjusts the parsed document before it is served
type SpecMutator func(map[string]any)

var mutators []SpecMutator

// Register adds a mutator; modules call it from their Register hook
func Register(m SpecMutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

// Mount serves the Swagger UI and document under /api/docs when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON())
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

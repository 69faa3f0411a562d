// Package module wires the meta endpoints into the API
package module

import (
	"time"

	"leadfunnel/internal/core/tracker"
	"leadfunnel/internal/modkit"
	"leadfunnel/internal/modkit/httpkit"
	metahttp "leadfunnel/internal/services/api/meta/http"
)

// ServiceName is reported by /meta/health and /meta/version
const ServiceName = "leadfunnel-api"

// Module is the meta API module
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New builds the meta module. The capture profile is read from CORE_CAPTURE_*
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)...)
	d := metahttp.Deps{
		ServiceName: ServiceName,
		StartedAt:   time.Now(),
		KV:          deps.KV,
		Capture:     tracker.OptionsFromConf(deps.Cfg),
	}
	if deps.PG != nil {
		d.PG = deps.PG
	}
	if deps.CH != nil {
		d.CH = deps.CH
	}
	return &Module{b: b, deps: d}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

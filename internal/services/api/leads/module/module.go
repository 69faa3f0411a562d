// Package module wires leads into the API using modkit
package module

import (
	"leadfunnel/internal/modkit"
	"leadfunnel/internal/modkit/httpkit"
	"leadfunnel/internal/services/api/leads/domain"
	leadshttp "leadfunnel/internal/services/api/leads/http"
	"leadfunnel/internal/services/api/leads/repo"
	"leadfunnel/internal/services/api/leads/service"
)

// Ports are what the leads module exposes and consumes. Inject History with
// modkit.WithPorts(Ports{History: ...})
type Ports struct {
	Service domain.ServicePort
	History domain.SessionHistory
}

// Module is the leads API module
type Module struct {
	b     modkit.Built
	svc   *service.Svc
	ports Ports
}

// New builds the leads module; deps.PG is required
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("leads"), modkit.WithPrefix("/leads")}, opts...)...)

	var in Ports
	if p, ok := b.Ports.(Ports); ok {
		in = p
	}
	svcOpts := []service.Option{}
	if in.History != nil {
		svcOpts = append(svcOpts, service.WithHistory(in.History))
	}
	svc := service.New(deps.PG, repo.NewPG(), svcOpts...)

	return &Module{b: b, svc: svc, ports: Ports{Service: svc, History: in.History}}
}

// Service exposes the concrete service for bootstrap (schema setup)
func (m *Module) Service() *service.Svc { return m.svc }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { leadshttp.Register(rr, m.svc) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

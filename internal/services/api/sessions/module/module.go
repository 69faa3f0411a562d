// Package module wires session ingest into the API using modkit
package module

import (
	"leadfunnel/internal/modkit"
	"leadfunnel/internal/modkit/httpkit"
	"leadfunnel/internal/services/api/sessions/domain"
	sessionshttp "leadfunnel/internal/services/api/sessions/http"
	"leadfunnel/internal/services/api/sessions/repo"
	"leadfunnel/internal/services/api/sessions/service"
)

// Ports are what the sessions module exposes
type Ports struct {
	Service domain.ServicePort
	History domain.HistoryPort
}

// Module is the sessions API module
type Module struct {
	b     modkit.Built
	svc   *service.Svc
	ports Ports
}

// New builds the sessions module; deps.PG is required, CH and KV are optional
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("sessions"), modkit.WithPrefix("/sessions")}, opts...)...)
	svc := service.New(deps.PG, repo.NewPG(), repo.NewCH(deps.CH), repo.NewHistory(deps.KV))
	return &Module{b: b, svc: svc, ports: Ports{Service: svc, History: svc.History()}}
}

// Service exposes the concrete service for bootstrap (schema setup)
func (m *Module) Service() *service.Svc { return m.svc }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { sessionshttp.Register(rr, m.svc) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

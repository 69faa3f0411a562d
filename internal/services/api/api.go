// Package api composes the HTTP API modules
package api

import (
	"context"
	"time"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/modkit"
	"leadfunnel/internal/modkit/httpkit"
	"leadfunnel/internal/modkit/swaggerkit"
	"leadfunnel/internal/platform/config"
	phttp "leadfunnel/internal/platform/net/http"
	"leadfunnel/internal/platform/store"

	leadsdomain "leadfunnel/internal/services/api/leads/domain"
	leadsmod "leadfunnel/internal/services/api/leads/module"
	metamod "leadfunnel/internal/services/api/meta/module"
	sessionsmod "leadfunnel/internal/services/api/sessions/module"
)

// Options configure the API
type Options struct {
	Config        config.Conf
	Store         *store.Store
	EnableSwagger bool
	// EnsureSchema creates tables before routes are mounted
	EnsureSchema bool
	Origins      []string
	Timeout      time.Duration
	SlowRequest  time.Duration
}

// OptionsFromConf reads LEADFUNNEL_API_* settings
func OptionsFromConf(root config.Conf, st *store.Store) Options {
	c := root.Prefix("LEADFUNNEL_API_")
	return Options{
		Config:        root,
		Store:         st,
		EnableSwagger: c.MayBool("SWAGGER", false),
		EnsureSchema:  c.MayBool("ENSURE_SCHEMA", true),
		Origins:       c.MayCSV("CORS_ORIGINS", nil),
		Timeout:       c.MayDuration("TIMEOUT", 30*time.Second),
		SlowRequest:   c.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
	}
}

// Mount builds every module and mounts them under /api/v1
func Mount(ctx context.Context, r phttp.Router, opt Options) error {
	deps := modkit.FromStore(opt.Config, opt.Store)
	log := deps.Logger()
	if deps.KV == nil {
		log.Warn().Msg("redis disabled; visitor state is kept in process memory")
		deps.KV = capture.NewMemoryStore()
	}

	sessions := sessionsmod.New(deps)
	leads := leadsmod.New(deps, modkit.WithPorts(leadsmod.Ports{
		History: modkit.MustPortsOf[leadsdomain.SessionHistory](sessions),
	}))
	mods := []modkit.Module{metamod.New(deps), leads, sessions}

	if opt.EnsureSchema {
		if err := leads.Service().EnsureSchema(ctx); err != nil {
			return err
		}
		if err := sessions.Service().EnsureSchema(ctx); err != nil {
			return err
		}
	}

	swaggerkit.Mount(r, opt.EnableSwagger)
	stack := httpkit.CommonStack(httpkit.StackOptions{
		Origins:     opt.Origins,
		Timeout:     opt.Timeout,
		SlowRequest: opt.SlowRequest,
	})
	httpkit.MountAPIV1(r, stack, func(v1 httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(v1)
			log.Debug().Str("module", m.Name()).Msg("module mounted")
		}
	})
	return nil
}

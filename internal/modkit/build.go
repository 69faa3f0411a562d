package modkit

import (
	"net/http"
	"strings"

	phttp "leadfunnel/internal/platform/net/http"
)

// Built is the resolved option set
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Ports    any
	Register func(phttp.Router)
}

// Build applies opts over the module defaults
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	prefix := strings.TrimRight(c.prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return Built{
		Name:     c.name,
		Prefix:   prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Mount routes the module prefix, applies its middleware, then registers
// own routes followed by any extra ones from WithRegister
func (b Built) Mount(r phttp.Router, own func(phttp.Router)) {
	attach := func(rr phttp.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		own(rr)
		b.Register(rr)
	}
	if b.Prefix == "" {
		r.Group(attach)
		return
	}
	r.Route(b.Prefix, attach)
}

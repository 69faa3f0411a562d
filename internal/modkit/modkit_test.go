package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"leadfunnel/internal/platform/config"
	phttp "leadfunnel/internal/platform/net/http"
	"leadfunnel/internal/platform/testkit"
)

type greeter interface{ Greet() string }

type hello struct{}

func (hello) Greet() string { return "hi" }

type fakeModule struct {
	b     Built
	ports any
}

func (m fakeModule) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(rr phttp.Router) {
		rr.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})
}
func (m fakeModule) Ports() any   { return m.ports }
func (m fakeModule) Name() string { return m.b.Name }

func TestBuild_Defaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || len(b.Mw) != 0 {
		t.Fatalf("defaults = %+v", b)
	}
	testkit.MustNotPanic(t, func() { b.Register(nil) })
}

func TestBuild_PrefixNormalised(t *testing.T) {
	if p := Build(WithPrefix("leads/")).Prefix; p != "/leads" {
		t.Fatalf("prefix = %q", p)
	}
}

func TestMount_PrefixMiddlewareAndExtraRoutes(t *testing.T) {
	var seen []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
	extra := func(r phttp.Router) {
		r.Get("/extra", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	}
	m := fakeModule{b: Build(WithName("demo"), WithPrefix("/demo"), WithMiddlewares(mw), WithRegister(extra))}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	for path, code := range map[string]int{"/demo/ping": 204, "/demo/extra": 202, "/ping": 404} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != code {
			t.Fatalf("%s = %d, want %d", path, rec.Code, code)
		}
	}
	testkit.MustEqualStrings(t, seen, []string{"/demo/ping", "/demo/extra"})
}

func TestPortsOf(t *testing.T) {
	direct := fakeModule{b: Build(WithName("a")), ports: hello{}}
	if g, ok := PortsOf[greeter](direct); !ok || g.Greet() != "hi" {
		t.Fatal("direct port not found")
	}

	type bundle struct {
		Other  int
		Greets greeter
	}
	nested := fakeModule{b: Build(WithName("b")), ports: &bundle{Greets: hello{}}}
	if _, ok := PortsOf[greeter](nested); !ok {
		t.Fatal("field port not found")
	}

	none := fakeModule{b: Build(WithName("c"))}
	if _, ok := PortsOf[greeter](none); ok {
		t.Fatal("nil ports matched")
	}
	testkit.MustPanic(t, func() { MustPortsOf[greeter](none) })
}

func TestFromStore_Nil(t *testing.T) {
	d := FromStore(config.New(), nil)
	if d.PG != nil || d.Logger() == nil {
		t.Fatalf("deps = %+v", d)
	}
}

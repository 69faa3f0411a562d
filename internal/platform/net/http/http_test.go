package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "leadfunnel/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

type echoIn struct {
	Name string `json:"name" validate:"required"`
}

func newTestRouter() Router {
	r := AdaptChi(chi.NewRouter())
	r.Route("/api", func(api Router) {
		api.Post("/echo", JSONHandler(func(_ *http.Request, in echoIn) (any, error) {
			return map[string]string{"hello": in.Name}, nil
		}))
		api.Post("/create", JSONHandler(func(_ *http.Request, in echoIn) (any, error) {
			return Created(in), nil
		}))
		api.Get("/missing", CallHandler(func(*http.Request) (any, error) {
			return nil, perr.NotFoundf("lead not found")
		}))
		api.Get("/empty", CallHandler(func(*http.Request) (any, error) { return NoContent(), nil }))
	})
	return r
}

func do(t *testing.T, r Router, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env Envelope
	if rec.Code != http.StatusNoContent {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestEnvelopes(t *testing.T) {
	r := newTestRouter()

	rec, env := do(t, r, "POST", "/api/echo", `{"name":"ada"}`)
	if rec.Code != 200 || env.Status != "OK" {
		t.Fatalf("echo = %d %+v", rec.Code, env)
	}
	if data, _ := env.Data.(map[string]any); data["hello"] != "ada" {
		t.Fatalf("data = %#v", env.Data)
	}

	rec, env = do(t, r, "POST", "/api/create", `{"name":"ada"}`)
	if rec.Code != http.StatusCreated || env.StatusCode != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}

	rec, env = do(t, r, "POST", "/api/echo", `{}`)
	if rec.Code != http.StatusBadRequest || env.Field != "name" || env.Code != perr.ErrorCodeValidation {
		t.Fatalf("validation = %d %+v", rec.Code, env)
	}

	rec, env = do(t, r, "GET", "/api/missing", "")
	if rec.Code != http.StatusNotFound || env.Error != "lead not found" {
		t.Fatalf("missing = %d %+v", rec.Code, env)
	}

	rec, _ = do(t, r, "GET", "/api/empty", "")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("empty = %d %q", rec.Code, rec.Body.String())
	}
}

package net

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequest(t *testing.T) {
	ctx := WithRequest(context.Background(), "req-1", "visitor-1")
	if RequestID(ctx) != "req-1" || VisitorID(ctx) != "visitor-1" {
		t.Fatalf("ids = %q/%q", RequestID(ctx), VisitorID(ctx))
	}
	bare := context.Background()
	if RequestID(bare) != "" || VisitorID(bare) != "" {
		t.Fatalf("bare context should carry no ids")
	}
}

func TestVisitorFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(VisitorHeader, "  abc  ")
	if got := VisitorFromRequest(r); got != "abc" {
		t.Fatalf("got %q", got)
	}
	r.Header.Set(VisitorHeader, strings.Repeat("x", 100))
	if got := VisitorFromRequest(r); len(got) != 64 {
		t.Fatalf("len = %d", len(got))
	}
}

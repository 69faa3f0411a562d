package pg

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"leadfunnel/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"select 1", "select 1"},
		{"  SELECT\t*\n FROM leads  WHERE id = $1 ", "SELECT * FROM leads WHERE id = $1"},
		{"", ""},
	}
	for _, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("compact(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTracer_NeverLogsArgs(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.DebugLevel))

	tr.OnQuery(context.Background(), QueryEvent{
		SQL:     "INSERT INTO leads (email) VALUES ($1)",
		NumArgs: 1,
		Elapsed: 3 * time.Millisecond,
	})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 1", Slow: true})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 2", Err: errors.New("boom")})

	out := buf.String()
	testkit.MustContain(t, out, `"args":1`)
	testkit.MustContain(t, out, `"level":"warn"`)
	testkit.MustContain(t, out, `"level":"error"`)
	testkit.MustNotContain(t, out, "@")
}

//go:build integration_ch

package repo

import (
	"context"
	"testing"
	"time"

	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/platform/store"
	"leadfunnel/internal/platform/testkit"
)

func TestSamples_InsertAndRange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "sessions-repo-it",
		CH:      store.CHConfig{Enabled: true, URL: testkit.StartClickHouse(t)},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close(ctx) }()

	r := NewCH(st.CH)
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rows := []SampleRow{
		{SessionID: "s1", PageURL: "p", Kind: "click", X: 10, Y: 20, Selector: "#buy", Tag: "button", At: at, ReceivedAt: at},
		{SessionID: "s1", PageURL: "p", Kind: "move", X: 11, Y: 21, At: at.Add(time.Second), ReceivedAt: at},
		{SessionID: "s2", PageURL: "q", Kind: "click", X: 1, Y: 1, At: at, ReceivedAt: at},
	}
	if err := r.Insert(ctx, rows); err != nil {
		t.Fatal(err)
	}

	got, err := r.Range(ctx, "p", at.Add(-time.Minute), at.Add(time.Minute), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Kind != heatmap.KindClick || got[0].Selector != "#buy" || got[1].X != 11 {
		t.Fatalf("range = %+v", got)
	}

	clicks, err := r.Range(ctx, "p", at.Add(-time.Minute), at.Add(time.Minute), []string{"click"})
	if err != nil {
		t.Fatal(err)
	}
	if len(clicks) != 1 {
		t.Fatalf("clicks = %+v", clicks)
	}
}

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/recording"
	pnet "leadfunnel/internal/platform/net"
)

// HTTPSink ships summaries and heatmap batches to the API
type HTTPSink struct {
	BaseURL   string
	VisitorID string
	Client    *http.Client
}

// NewHTTPSink posts to baseURL (for example http://localhost:4000/api/v1)
func NewHTTPSink(baseURL, visitorID string) *HTTPSink {
	return &HTTPSink{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		VisitorID: visitorID,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SamplesBatch is the body of POST /sessions/samples
type SamplesBatch struct {
	Samples []heatmap.Sample `json:"samples"`
}

// Summarize posts a sealed summary
func (s *HTTPSink) Summarize(ctx context.Context, sum recording.Summary) error {
	return s.post(ctx, "/sessions/summaries", sum)
}

// Samples posts heatmap samples
func (s *HTTPSink) Samples(ctx context.Context, samples []heatmap.Sample) error {
	return s.post(ctx, "/sessions/samples", SamplesBatch{Samples: samples})
}

func (s *HTTPSink) post(ctx context.Context, path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.VisitorID != "" {
		req.Header.Set(pnet.VisitorHeader, s.VisitorID)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tracker: POST %s: %s: %s", path, resp.Status, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Renderer turns an HTML document into a PDF. The production
// implementation calls an external rendering service.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type httpRenderer struct {
	url    string
	client *http.Client
}

// NewHTTPRenderer returns a Renderer backed by an HTTP rendering
// service that accepts {"html": "..."} and responds with raw PDF bytes.
func NewHTTPRenderer(url string) Renderer {
	return &httpRenderer{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *httpRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"html": html})
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rendered pdf: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("renderer returned empty document")
	}
	return pdf, nil
}

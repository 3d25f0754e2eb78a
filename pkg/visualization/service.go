package visualization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"floatchat-be/pkg/tabular"
)

// Artifact is a rendered chart attached to a chat response. Data carries the
// image encoded as base64 so it can travel inside a JSON payload.
type Artifact struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Data   string `json:"data"`
}

// Service renders a chart from a query result. The hint is the user's
// original message; the renderer infers the chart type from it.
type Service interface {
	Render(ctx context.Context, rows *tabular.ResultSet, hint string) (*Artifact, error)
}

var chartKeywords = []string{
	"plot", "graph", "chart", "visualize",
	"show chart", "bar chart", "line graph", "histogram",
}

// WantsVisualization reports whether the message asks for a chart.
func WantsVisualization(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range chartKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ChartTypeHint extracts the requested chart type from the message,
// defaulting to a bar chart when none is named.
func ChartTypeHint(message string) string {
	lower := strings.ToLower(message)
	for _, t := range []string{"line", "pie", "scatter", "histogram"} {
		if strings.Contains(lower, t) {
			return t
		}
	}
	return "bar"
}

// HTTPRenderer calls an external chart rendering service.
type HTTPRenderer struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var _ Service = &HTTPRenderer{}

type renderRequest struct {
	ChartType string                   `json:"chart_type"`
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
}

type renderResponse struct {
	Image string `json:"image"`
}

func (r *HTTPRenderer) Render(ctx context.Context, rows *tabular.ResultSet, hint string) (*Artifact, error) {
	if rows == nil || rows.Empty() {
		return nil, fmt.Errorf("no rows to render")
	}

	payload := renderRequest{
		ChartType: ChartTypeHint(hint),
		Columns:   rows.Columns,
		Rows:      rows.Maps(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/render", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}
	if rendered.Image == "" {
		return nil, fmt.Errorf("renderer returned an empty image")
	}

	return &Artifact{
		Type:   "image",
		Format: "image/png",
		Data:   rendered.Image,
	}, nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edkuperman/pipelinedag/internal/dag"
)

// Client talks to a running pipelinedag server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Parse posts p to /pipelines/parse and returns the server's analysis.
func (c *Client) Parse(ctx context.Context, p dag.Pipeline) (dag.Analysis, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return dag.Analysis{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pipelines/parse", bytes.NewReader(body))
	if err != nil {
		return dag.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dag.Analysis{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return dag.Analysis{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return dag.Analysis{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return dag.Analysis{}, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var a dag.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return dag.Analysis{}, fmt.Errorf("decode response: %w", err)
	}
	return a, nil
}

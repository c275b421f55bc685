package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const tavilyURL = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTavily(apiKey string, client *http.Client) *Tavily {
	return &Tavily{apiKey: apiKey, baseURL: tavilyURL, client: client}
}

func (t *Tavily) Name() string { return string(TavilyProvider) }

// Search posts the query with the requested depth and result count.
func (t *Tavily) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	body := map[string]any{
		"api_key": t.apiKey,
		"query":   query,
	}
	if opts.Depth != "" {
		body["search_depth"] = opts.Depth
	}
	if opts.MaxResults > 0 {
		body["max_results"] = opts.MaxResults
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("tavily: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResp(resp, "tavily"); err != nil {
		return nil, err
	}

	var out struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decode: %w", err)
	}
	if opts.MaxResults > 0 && len(out.Results) > opts.MaxResults {
		out.Results = out.Results[:opts.MaxResults]
	}
	return out.Results, nil
}

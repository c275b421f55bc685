package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave calls the Brave web search API. Brave has no depth knob; Options.Depth
// is ignored.
type Brave struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewBrave(apiKey string, client *http.Client) *Brave {
	return &Brave{apiKey: apiKey, baseURL: braveURL, client: client}
}

func (b *Brave) Name() string { return string(BraveProvider) }

func (b *Brave) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	q := url.Values{"q": {query}}
	if opts.MaxResults > 0 {
		q.Set("count", strconv.Itoa(opts.MaxResults))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResp(resp, "brave"); err != nil {
		return nil, err
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("brave: decode: %w", err)
	}
	var out []Result
	for i, r := range raw.Web.Results {
		if opts.MaxResults > 0 && i >= opts.MaxResults {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Content: r.Description})
	}
	return out, nil
}

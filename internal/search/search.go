// Package search wraps hosted web search APIs behind one Provider interface.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is a single ordered search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Depth values understood by providers.
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// Options tune one query. Zero values mean provider defaults.
type Options struct {
	Depth      string
	MaxResults int
}

// Provider executes a query and returns ordered results.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

type ProviderName string

const (
	TavilyProvider ProviderName = "tavily"
	BraveProvider  ProviderName = "brave"
)

var ErrUnsupportedProvider = errors.New("search: unsupported provider")

// defaultTimeout is the client-side limit for one search call.
const defaultTimeout = 30 * time.Second

// New returns the named provider, or nil when apiKey is empty: a missing key
// means no search client is configured.
func New(name ProviderName, apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, nil
	}
	client := &http.Client{Timeout: defaultTimeout}
	switch name {
	case TavilyProvider, "":
		return NewTavily(apiKey, client), nil
	case BraveProvider:
		return NewBrave(apiKey, client), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
}

// checkResp returns an error carrying the upstream body when the status is not 2xx.
func checkResp(resp *http.Response, service string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s returned %d: %s", service, resp.StatusCode, string(body))
}

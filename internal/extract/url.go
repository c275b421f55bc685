// Package extract turns web pages and uploaded documents into plain text
// blocks sized for a model prompt.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/textutil"
)

const (
	// URLBudget is the number of page characters kept per URL.
	URLBudget = 2500
	// DefaultFetchTimeout bounds a single page fetch.
	DefaultFetchTimeout = 10 * time.Second

	maxPageBytes = 4 << 20
)

// Fetcher downloads pages and extracts their readable text.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose requests time out after timeout
// (DefaultFetchTimeout when zero).
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Text fetches rawURL and returns its readable text, untruncated.
func (f *Fetcher) Text(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("fetch %s: read: %w", rawURL, err)
	}
	page := string(body)

	if article, err := readability.FromReader(strings.NewReader(page), u); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text, nil
		}
	}
	return stripHTML(page), nil
}

// Extract returns the URL content block for rawURL. On failure it returns the
// error block together with the cause.
func (f *Fetcher) Extract(ctx context.Context, rawURL string) (string, error) {
	text, err := f.Text(ctx, rawURL)
	if err != nil {
		return fmt.Sprintf("\nError extracting URL: %s\n", rawURL), err
	}
	return fmt.Sprintf("\n--- URL CONTENT (%s) ---\n%s...\n---", rawURL, textutil.Truncate(text, URLBudget)), nil
}

var (
	reScript     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reTags       = regexp.MustCompile(`<[^>]+>`)
	reWhitespace = regexp.MustCompile(`\s+`)
	entities     = strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
	)
)

// stripHTML drops scripts and styles, then every tag, and joins the
// remaining text with single spaces.
func stripHTML(page string) string {
	s := reScript.ReplaceAllString(page, " ")
	s = reStyle.ReplaceAllString(s, " ")
	s = reTags.ReplaceAllString(s, " ")
	s = entities.Replace(s)
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

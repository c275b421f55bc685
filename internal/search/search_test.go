package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New(TavilyProvider, "")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = New(TavilyProvider, "k")
	require.NoError(t, err)
	assert.Equal(t, "tavily", p.Name())

	p, err = New(BraveProvider, "k")
	require.NoError(t, err)
	assert.Equal(t, "brave", p.Name())

	_, err = New("bing", "k")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestTavilySearch(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		io.WriteString(w, `{"results":[
			{"title":"a","url":"https://a","content":"alpha"},
			{"title":"b","url":"https://b","content":"beta"},
			{"title":"c","url":"https://c","content":"gamma"}]}`)
	}))
	defer srv.Close()

	tv := NewTavily("key", srv.Client())
	tv.baseURL = srv.URL
	res, err := tv.Search(context.Background(), "quantum scholarly papers", Options{Depth: DepthAdvanced, MaxResults: 2})
	require.NoError(t, err)

	assert.Equal(t, []Result{{Title: "a", URL: "https://a", Content: "alpha"}, {Title: "b", URL: "https://b", Content: "beta"}}, res)
	assert.Equal(t, "key", body["api_key"])
	assert.Equal(t, "quantum scholarly papers", body["query"])
	assert.Equal(t, "advanced", body["search_depth"])
	assert.EqualValues(t, 2, body["max_results"])
}

func TestTavilyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"invalid key"}`)
	}))
	defer srv.Close()

	tv := NewTavily("bad", srv.Client())
	tv.baseURL = srv.URL
	_, err := tv.Search(context.Background(), "q", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid key")
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "go news", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		io.WriteString(w, `{"web":{"results":[
			{"title":"x","url":"https://x","description":"first"},
			{"title":"y","url":"https://y","description":"second"}]}}`)
	}))
	defer srv.Close()

	b := NewBrave("tok", srv.Client())
	b.baseURL = srv.URL
	res, err := b.Search(context.Background(), "go news", Options{MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, []Result{{Title: "x", URL: "https://x", Content: "first"}}, res)
}

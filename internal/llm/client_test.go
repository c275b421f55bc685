package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "llama-3.1-8b-instant",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestClientGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion("  hello world \n"))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "llama-3.1-8b-instant", Temperature: 0.1})
	text, err := c.Generate(context.Background(), Request{Prompt: "hi", System: "be nice", JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	assert.Equal(t, "llama-3.1-8b-instant", got["model"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-9)
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
}

func TestClientGenerateWithoutSystem(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL + "/", Model: "m"})
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Len(t, got["messages"], 1)
	assert.NotContains(t, got, "response_format")
}

func TestClientGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "m", Extra: []option.RequestOption{option.WithMaxRetries(0)}})
	text, err := GenerateText(context.Background(), c, Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, IsSentinel(text))
	assert.Contains(t, text, SentinelPrefix)
}

func TestSentinel(t *testing.T) {
	s := Sentinel(errors.New("boom"))
	assert.Equal(t, "LLM_ERROR: boom", s)
	assert.True(t, IsSentinel(s))
	assert.False(t, IsSentinel("fine"))
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
)

func serve(t *testing.T, store session.Store, cookie string) *session.Context {
	t.Helper()
	var got *session.Context
	h := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.SessionCookie, Value: cookie})
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLoadSession(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	sess := session.New(session.WelcomeGreeting, time.Now())
	require.NoError(t, store.Put(context.Background(), sess))

	got := serve(t, store, sess.ID)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)

	assert.Nil(t, serve(t, store, ""))
	assert.Nil(t, serve(t, store, "sid_unknown"))
}

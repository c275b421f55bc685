package research

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/extract"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/middleware"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/store"
)

// MaxUploadBytes bounds multipart turn requests.
const MaxUploadBytes = 20 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Handler holds the session and history HTTP handlers.
type Handler struct {
	svc      *Service
	sessions session.Store
	ttl      time.Duration
}

func NewHandler(svc *Service, sessions session.Store, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Handler{svc: svc, sessions: sessions, ttl: ttl}
}

// Routes registers the API under r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(h.sessions))

		r.Post("/sessions", h.NewSession)
		r.Get("/sessions/current", h.Current)
		r.Put("/sessions/current/preferences", h.UpdatePreferences)
		r.Post("/sessions/current/turns", h.Turn)

		r.Get("/history", h.ListHistory)
		r.Get("/history/{id}", h.GetHistory)
		r.Post("/history/{id}/load", h.LoadHistory)
		r.Delete("/history/{id}", h.DeleteHistory)
		r.Get("/history/{id}/report", h.Report)
	})
}

// turnResponse is returned by Turn.
type turnResponse struct {
	Session *session.Context `json:"session"`
	State   *models.State    `json:"state"`
}

// historyItem is one row of the history list.
type historyItem struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSession starts a new chat and makes it current.
func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	sess := h.svc.NewSession(middleware.SessionFrom(r.Context()))
	if !h.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// Current returns the current chat, opening one on first contact.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// UpdatePreferences changes the summary length or source focus.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req models.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		sess = h.svc.NewSession(nil)
	}
	if req.SummaryPreference != "" {
		sess.SummaryPreference = models.ParseSummaryPreference(req.SummaryPreference)
	}
	if req.SourceFocus != "" {
		sess.SourceFocus = models.ParseSourceFocus(req.SourceFocus)
	}
	if !h.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Turn runs one research turn. It accepts JSON {"prompt"} or a multipart
// form with a prompt field and an optional file.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	in, err := readTurn(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		sess = h.svc.NewSession(nil)
	}

	st, err := h.svc.Turn(r.Context(), sess, in)
	if err != nil {
		slog.Error("turn failed", "session", sess.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "research turn failed")
		return
	}
	if !h.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Session: sess, State: st})
}

func readTurn(r *http.Request) (TurnInput, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		var req models.TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return TurnInput{}, errors.New("invalid request body")
		}
		return TurnInput{Prompt: req.Prompt}, nil
	}

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return TurnInput{}, errors.New("invalid multipart form")
	}
	in := TurnInput{Prompt: r.FormValue("prompt")}
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return TurnInput{}, errors.New("invalid file upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return TurnInput{}, errors.New("invalid file upload")
	}
	in.File = &extract.File{Name: header.Filename, Data: data}
	return in, nil
}

// ListHistory returns saved sessions, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context())
	if err != nil {
		slog.Error("history list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{SessionID: e.SessionID, Title: e.Title, Timestamp: e.Timestamp})
	}
	writeJSON(w, http.StatusOK, items)
}

// GetHistory returns one saved session.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// LoadHistory makes a saved session current.
func (h *Handler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Load(r.Context(), chi.URLParam(r, "id"), middleware.SessionFrom(r.Context()))
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !h.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteHistory removes a saved session and its attachments.
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		slog.Error("history delete failed", "err", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Report streams the latest archived report markdown.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Report(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNoArchive), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not available")
		return
	case err != nil:
		slog.Error("report download failed", "err", err)
		writeError(w, http.StatusBadGateway, "download failed")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=report.md")
	w.Write(data)
}

func (h *Handler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.Error("history lookup failed", "err", err)
	writeError(w, http.StatusInternalServerError, "database error")
}

// current returns the request's session, creating and storing a fresh one
// when there is none.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) (*session.Context, bool) {
	if sess := middleware.SessionFrom(r.Context()); sess != nil {
		return sess, true
	}
	sess := h.svc.NewSession(nil)
	return sess, h.save(w, r, sess)
}

// save stores sess and points the client's cookie at it.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, sess *session.Context) bool {
	if err := h.sessions.Put(r.Context(), sess); err != nil {
		slog.Error("session save failed", "session", sess.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "session error")
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.ttl / time.Second),
	})
	return true
}

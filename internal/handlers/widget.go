package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"samarth-chat/internal/models"
	"samarth-chat/internal/services"
	"samarth-chat/internal/session"
	"samarth-chat/internal/websocket"
)

type WidgetHandler struct {
	sessions    *session.Store
	suggestions []string
	logger      *zap.Logger
}

func NewWidgetHandler(sessions *session.Store, suggestions []string, logger *zap.Logger) *WidgetHandler {
	return &WidgetHandler{sessions: sessions, suggestions: suggestions, logger: logger}
}

type pageData struct {
	SessionID   string
	Transcript  template.HTML
	Suggestions []string
}

type transcriptSnapshot struct {
	SessionID string         `json:"session_id"`
	Entries   []models.Entry `json:"entries"`
	InFlight  int            `json:"in_flight"`
}

// Page serves the widget, starting a new session when the cookie names
// none we know.
func (h *WidgetHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	if sess == nil {
		sess = h.sessions.Create()
		http.SetCookie(w, &http.Cookie{
			Name:     websocket.SessionCookie,
			Value:    sess.ID.String(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
	}

	transcript, err := h.sessions.Renderer().Entries(sess.Entries())
	if err != nil {
		h.logger.Error("failed to render transcript", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, pageData{
		SessionID:   sess.ID.String(),
		Transcript:  transcript,
		Suggestions: h.suggestions,
	})
	if err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// PostMessage serves POST /chat/messages. The user entry is returned
// right away; the reply follows over the websocket.
func (h *WidgetHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.requireSession(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid form body", r))
		return
	}

	entry, ok := h.sessions.Submit(sess, r.FormValue("message"))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	fragment, err := h.sessions.Renderer().Entry(entry)
	if err != nil {
		h.logger.Error("failed to render entry", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(fragment))
}

// Transcript serves GET /chat/transcript.
func (h *WidgetHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	sess, err := h.requireSession(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transcriptSnapshot{
		SessionID: sess.ID.String(),
		Entries:   sess.Entries(),
		InFlight:  sess.InFlight(),
	})
}

func (h *WidgetHandler) currentSession(r *http.Request) *session.Session {
	id, ok := sessionID(r)
	if !ok {
		return nil
	}
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.logger.Debug("session lookup failed", zap.String("session", id.String()), zap.Error(err))
		return nil
	}
	return sess
}

func (h *WidgetHandler) requireSession(r *http.Request) (*session.Session, error) {
	id, ok := sessionID(r)
	if !ok {
		return nil, &services.ValidationError{Fields: map[string]string{"session": "Session is required"}}
	}
	return h.sessions.Get(r.Context(), id)
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("session")
	if raw == "" {
		cookie, err := r.Cookie(websocket.SessionCookie)
		if err != nil {
			return uuid.Nil, false
		}
		raw = cookie.Value
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

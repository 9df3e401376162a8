package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"samarth-chat/internal/models"
)

type answerer interface {
	Answer(ctx context.Context, question string) (*models.AskResponse, error)
}

type AskHandler struct {
	answers answerer
	logger  *zap.Logger
}

func NewAskHandler(answers answerer, logger *zap.Logger) *AskHandler {
	return &AskHandler{answers: answers, logger: logger}
}

// Ask serves POST /ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.answers.Answer(r.Context(), req.Question)
	if err != nil {
		h.logger.Warn("answer failed", zap.String("request_id", requestID(r)), zap.Error(err))
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health serves GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

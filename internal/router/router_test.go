package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"samarth-chat/internal/askclient"
	"samarth-chat/internal/chat"
	"samarth-chat/internal/handlers"
	"samarth-chat/internal/models"
	"samarth-chat/internal/services"
	"samarth-chat/internal/session"
	"samarth-chat/internal/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	answers := services.NewAnswerService(services.SampleDataset{}, nil, nil, logger)
	hub := websocket.NewHub(nil, logger)
	store := session.NewStore(session.Config{Asker: answers, Publisher: hub, Logger: logger})
	t.Cleanup(store.Wait)

	srv := httptest.NewServer(New(
		handlers.NewAskHandler(answers, logger),
		handlers.NewWidgetHandler(store, services.Suggestions, logger),
		hub,
		"",
		logger,
	))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/ask", `{"question":"Average rainfall in India"}`, http.StatusOK},
		{http.MethodPost, "/ask", `{"question":""}`, http.StatusBadRequest},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/chat/transcript", "", http.StatusBadRequest},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

// The chat handler driven end to end through the HTTP client and router.
func TestChatCycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	input := &chat.Field{}
	var got []models.Role
	var texts []string
	sink := sinkFunc(func(role models.Role, text string) {
		got = append(got, role)
		texts = append(texts, text)
	})
	h := chat.NewHandler(input, sink, askclient.NewClient(srv.URL, 0))

	input.Set("  Compare rainfall in Punjab and Haryana ")
	require.True(t, h.Handle(context.Background()))

	assert.Equal(t, []models.Role{models.RoleUser, models.RoleBot}, got)
	assert.Equal(t, "Compare rainfall in Punjab and Haryana", texts[0])
	assert.Contains(t, texts[1], "Punjab: 786.67 mm")
	assert.Empty(t, input.Value())
}

type sinkFunc func(role models.Role, text string)

func (f sinkFunc) Append(role models.Role, text string) { f(role, text) }
func (f sinkFunc) ScrollToEnd()                         {}

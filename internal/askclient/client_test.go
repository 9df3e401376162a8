package askclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk_SendsQuestionAsJSON(t *testing.T) {
	var (
		gotMethod, gotPath, gotType, gotQuery string
		gotBody                               map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{"answer":"42"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 2*time.Second)
	resp, err := c.Ask(context.Background(), "meaning of life")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/ask", gotPath)
	assert.Empty(t, gotQuery)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]interface{}{"question": "meaning of life"}, gotBody)

	require.NotNil(t, resp.Answer)
	assert.Equal(t, "42", *resp.Answer)
}

func TestAsk_DecodesStructuredReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"answer":"Top crops in Punjab","type":"top_crops","state":"Punjab","labels":["Wheat","Rice"],"values":[16000,14000]}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 0).Ask(context.Background(), "top crops in punjab")
	require.NoError(t, err)
	assert.Equal(t, "top_crops", resp.Type)
	assert.Equal(t, "Punjab", resp.State)
	assert.Equal(t, []string{"Wheat", "Rice"}, resp.Labels)
	assert.Equal(t, []float64{16000, 14000}, resp.Values)
}

func TestAsk_MissingAnswerIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text":"legacy"}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Nil(t, resp.Answer)
	assert.Equal(t, "legacy", resp.Text)
}

func TestAsk_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down\n")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "q")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestAsk_MalformedBody(t *testing.T) {
	for _, body := range []string{"not json", `["answer"]`, `"42"`, "null", " null\n", ""} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))

		_, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "q")
		assert.ErrorIs(t, err, ErrMalformedResponse, "body %q", body)
		srv.Close()
	}
}

func TestAsk_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Ask(context.Background(), "q")
	require.Error(t, err)
}

func TestAsk_HonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, 0).Ask(ctx, "q")
	require.Error(t, err)
}

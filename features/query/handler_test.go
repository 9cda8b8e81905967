package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venturelens/backend/internal/adapter/gemini"
	"venturelens/backend/internal/adapter/websearch"
	"venturelens/backend/internal/retrieval"
)

func postQuery(t *testing.T, h *Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Query(rec, req)
	return rec
}

func TestHandler_Query_EmptyQuery(t *testing.T) {
	h := NewHandler(NewService(nil, nil, nil))

	rec := postQuery(t, h, Request{Query: ""})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	errObj := resp["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestHandler_Query_InvalidJSON(t *testing.T) {
	h := NewHandler(NewService(nil, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Query_StreamsAnswer(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Search", mock.Anything, "who raised?").Return([]retrieval.ScoredChunk{
		scoredChunk("Funding Galore", "Acme raised $5M."),
	}, nil, nil)

	var captured completionRequest
	upstream := sseServer(t, &captured, "Acme ", "raised $5M.")
	defer upstream.Close()

	completer := gemini.NewChatClient("test-key")
	completer.SetBaseURL(upstream.URL)

	h := NewHandler(NewService(retriever, completer, nil))
	rec := postQuery(t, h, Request{Query: "who raised?"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var sources []SourceRef
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("X-Document-Sources")), &sources))
	assert.Equal(t, []SourceRef{{Name: "Funding Galore", Category: "document"}}, sources)

	body := rec.Body.String()
	assert.Contains(t, body, `"content":"Acme "`)
	assert.Contains(t, body, `"content":"raised $5M."`)
	assert.Contains(t, body, "data: [DONE]")
}

func TestHandler_Query_RateLimited(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Search", mock.Anything, mock.Anything).Return(nil, nil, nil)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"slow down"}`)
	}))
	defer upstream.Close()

	completer := gemini.NewChatClient("test-key")
	completer.SetBaseURL(upstream.URL)

	h := NewHandler(NewService(retriever, completer, nil))
	rec := postQuery(t, h, Request{Query: "q"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestHandler_Query_QuotaExhausted(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Search", mock.Anything, mock.Anything).Return(nil, nil, nil)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer upstream.Close()

	completer := gemini.NewChatClient("test-key")
	completer.SetBaseURL(upstream.URL)

	h := NewHandler(NewService(retriever, completer, nil))
	rec := postQuery(t, h, Request{Query: "q"})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "AI credits exhausted")
}

func TestHandler_Query_WebMode(t *testing.T) {
	web := new(MockWebSearcher)
	web.On("Search", mock.Anything, mock.Anything, "latest deals").Return(&websearch.Result{
		Content: "Here is what I found.",
		Citations: []websearch.Citation{
			{Title: "Source 1", URL: "https://inc42.com/buzz"},
		},
	}, nil)

	h := NewHandler(NewService(nil, nil, web))
	rec := postQuery(t, h, Request{Query: "latest deals", Mode: "web"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Data websearch.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Here is what I found.", resp.Data.Content)
	require.Len(t, resp.Data.Citations, 1)
	assert.Equal(t, "https://inc42.com/buzz", resp.Data.Citations[0].URL)

	web.AssertExpectations(t)
}

func TestHandler_Query_WebRateLimited(t *testing.T) {
	web := new(MockWebSearcher)
	web.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: too many requests", websearch.ErrRateLimited))

	h := NewHandler(NewService(nil, nil, web))
	rec := postQuery(t, h, Request{Query: "q", Mode: "web"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestHandler_Query_InternalError(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Search", mock.Anything, mock.Anything).Return(nil, nil, context.DeadlineExceeded)

	h := NewHandler(NewService(retriever, nil, nil))
	rec := postQuery(t, h, Request{Query: "q"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to generate response")
}

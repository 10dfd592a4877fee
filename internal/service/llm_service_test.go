package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yasuo72/recipt-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLLMService(t *testing.T, handler http.HandlerFunc) (*LLMService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
		APIURL:  server.URL,
		Timeout: 5 * time.Second,
	}

	return NewLLMService(cfg, NewPromptBuilder(TemplateEnglish), zap.NewNop()), server
}

func TestLLMService_NotConfigured(t *testing.T) {
	cfg := &config.GeminiConfig{Timeout: time.Second}
	svc := NewLLMService(cfg, NewPromptBuilder(TemplateEnglish), zap.NewNop())

	_, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})
	assert.ErrorIs(t, err, ErrGeminiNotConfigured)
}

func TestLLMService_ConcatenatesCandidateParts(t *testing.T) {
	svc, _ := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "MediAssist AI")

		_, _ = w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "  ### Summary part one\n"}, {"text": "part two  "}]}},
				{"content": {"parts": [{"text": "ignored second candidate"}]}}
			]
		}`))
	})

	summary, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})
	require.NoError(t, err)
	assert.Equal(t, "### Summary part one\npart two", summary)
}

func TestLLMService_OutputTextFallback(t *testing.T) {
	svc, _ := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output_text": " plain summary "}`))
	})

	summary, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})
	require.NoError(t, err)
	assert.Equal(t, "plain summary", summary)
}

func TestLLMService_EmptyResponse(t *testing.T) {
	svc, _ := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	_, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})
	assert.ErrorIs(t, err, ErrEmptySummary)
}

func TestLLMService_UpstreamErrorCarriesMessage(t *testing.T) {
	svc, _ := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Resource has been exhausted"}}`))
	})

	_, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, "Resource has been exhausted", upstream.Error())
}

func TestLLMService_TransportFailure(t *testing.T) {
	svc, server := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})

	var upstream *UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestLLMService_Timeout(t *testing.T) {
	started := make(chan struct{})
	svc, _ := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(2 * time.Second)
	})
	svc.httpClient.Timeout = 50 * time.Millisecond

	_, err := svc.SummarizeReceipt(context.Background(), &PromptContext{})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	<-started

	var netErr interface{ Timeout() bool }
	if errors.As(upstream.Err, &netErr) {
		assert.True(t, netErr.Timeout())
	}
}

package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		want        bool
	}{
		{"content type wins", "https://example.com/file", "application/pdf", true},
		{"content type with charset", "https://example.com/file", "application/pdf; charset=binary", true},
		{"pdf suffix without hint", "https://example.com/scan.PDF", "", true},
		{"jpg routes to image branch", "https://example.com/receipt.jpg", "image/jpeg", false},
		{"jpg suffix without hint", "https://example.com/receipt.jpg", "", false},
		{"image content type beats pdf-less url", "https://example.com/blob", "image/png", false},
		{"empty everything", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPDF(tt.url, tt.contentType))
		})
	}
}

func TestOCRService_EmptyURL(t *testing.T) {
	svc := NewOCRService(nil, zap.NewNop())
	assert.Empty(t, svc.ExtractTextFromURL(context.Background(), ""))
}

func TestOCRService_FetchFailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL + "/receipt.pdf"
	server.Close()

	svc := NewOCRService(nil, zap.NewNop())
	assert.Empty(t, svc.ExtractTextFromURL(context.Background(), url))
}

func TestOCRService_NotFoundReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	svc := NewOCRService(server.Client(), zap.NewNop())
	assert.Empty(t, svc.ExtractTextFromURL(context.Background(), server.URL+"/receipt.pdf"))
}

func TestOCRService_GarbagePDFReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("definitely not a pdf"))
	}))
	defer server.Close()

	svc := NewOCRService(server.Client(), zap.NewNop())
	assert.Empty(t, svc.ExtractTextFromURL(context.Background(), server.URL+"/broken"))
}

func TestOCRService_CancelledContextReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewOCRService(server.Client(), zap.NewNop())
	assert.Empty(t, svc.ExtractTextFromURL(ctx, server.URL+"/receipt.pdf"))
}

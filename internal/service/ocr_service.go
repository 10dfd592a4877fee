package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// OCRService pulls raw text out of a remote receipt file. PDFs go through
// structured extraction (go-fitz); everything else is treated as an image
// and run through Tesseract with English trained data.
type OCRService struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOCRService(httpClient *http.Client, logger *zap.Logger) *OCRService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OCRService{
		httpClient: httpClient,
		logger:     logger,
	}
}

// ExtractTextFromURL fetches the file behind url and extracts its text.
// It never fails: any fetch, classification, or extraction error is logged
// and converted to "", so a broken file can not block receipt creation.
func (s *OCRService) ExtractTextFromURL(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	data, contentType, err := s.downloadFile(ctx, url)
	if err != nil {
		s.logger.Warn("Failed to download file for OCR",
			zap.String("url", url),
			zap.Error(err),
		)
		return ""
	}

	var text string
	if isPDF(url, contentType) {
		text, err = s.extractTextFromPDF(data)
	} else {
		text, err = s.extractTextFromImage(data)
	}
	if err != nil {
		s.logger.Warn("Text extraction failed",
			zap.String("url", url),
			zap.String("content_type", contentType),
			zap.Error(err),
		)
		return ""
	}

	s.logger.Info("OCR extraction completed",
		zap.String("url", url),
		zap.Bool("pdf", isPDF(url, contentType)),
		zap.Int("text_length", len(text)),
	)

	return text
}

func (s *OCRService) downloadFile(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d fetching file", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file body: %w", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	return data, contentType, nil
}

// isPDF trusts the Content-Type hint first and falls back to the URL suffix
// when the hint is absent or unhelpful.
func isPDF(url, contentType string) bool {
	if strings.Contains(contentType, "pdf") {
		return true
	}
	if url == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(url), ".pdf")
}

func (s *OCRService) extractTextFromPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

func (s *OCRService) extractTextFromImage(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("eng"); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yasuo72/recipt-backend/pkg/config"

	"go.uber.org/zap"
)

// Typed summarization failures. The orchestrator degrades all of them into a
// visible fallback summary instead of failing the request.
var (
	// ErrGeminiNotConfigured means GEMINI_API_KEY is missing.
	ErrGeminiNotConfigured = errors.New("GEMINI_API_KEY is not configured")

	// ErrEmptySummary means the API answered 200 but no text could be
	// located in the response body.
	ErrEmptySummary = errors.New("no summary text returned from Gemini")
)

// UpstreamError wraps a failed HTTP exchange with the Gemini API.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("Gemini request failed with status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1/models"

// LLMService is the summarization client for the Gemini generateContent API.
// One synchronous call per receipt, no retries: on failure the orchestrator
// stores a fallback summary instead.
type LLMService struct {
	cfg        *config.GeminiConfig
	prompts    *PromptBuilder
	httpClient *http.Client
	logger     *zap.Logger
}

func NewLLMService(cfg *config.GeminiConfig, prompts *PromptBuilder, logger *zap.Logger) *LLMService {
	if cfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; receipt summaries will fail until it is configured")
	}

	return &LLMService{
		cfg:     cfg,
		prompts: prompts,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (s *LLMService) endpoint() string {
	if s.cfg.APIURL != "" {
		return s.cfg.APIURL
	}
	return fmt.Sprintf("%s/%s:generateContent", defaultGeminiBaseURL, s.cfg.Model)
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	OutputText string `json:"output_text"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SummarizeReceipt compiles the prompt for pc and asks Gemini for a summary.
// The returned text is trimmed but otherwise verbatim model output.
func (s *LLMService) SummarizeReceipt(ctx context.Context, pc *PromptContext) (string, error) {
	if s.cfg.APIKey == "" {
		return "", ErrGeminiNotConfigured
	}

	prompt := s.prompts.BuildPrompt(pc)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.endpoint() + "?key=" + s.cfg.APIKey

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Err: err}
	}

	var parsed geminiResponse
	if unmarshalErr := json.Unmarshal(respBody, &parsed); unmarshalErr != nil && resp.StatusCode == http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Err: unmarshalErr}
	}

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("Gemini request failed with status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		s.logger.Error("Gemini request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(respBody)),
		)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	// Take the first candidate and stitch its text parts in document order;
	// some responses carry the text in a top-level output_text instead.
	var text string
	if len(parsed.Candidates) > 0 {
		var sb strings.Builder
		for _, part := range parsed.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		text = sb.String()
	}
	if text == "" {
		text = parsed.OutputText
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptySummary
	}

	s.logger.Info("Receipt summary generated",
		zap.String("model", s.cfg.Model),
		zap.Int("summary_length", len(text)),
	)

	return text, nil
}

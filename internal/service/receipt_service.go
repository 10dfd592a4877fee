package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yasuo72/recipt-backend/internal/apperr"
	"github.com/yasuo72/recipt-backend/internal/dto"
	"github.com/yasuo72/recipt-backend/internal/models"
	"github.com/yasuo72/recipt-backend/pkg/cloudinary"
	"github.com/yasuo72/recipt-backend/pkg/crypto"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReceiptNotFound is returned by ReceiptRepository implementations when
// no record matches the requested id.
var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptRepository owns the receipt lifecycle in the document store.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.Receipt, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TextExtractor is the fail-soft OCR pipeline: it returns "" on any failure.
type TextExtractor interface {
	ExtractTextFromURL(ctx context.Context, url string) string
}

// Summarizer produces the AI summary for a compiled prompt context.
type Summarizer interface {
	SummarizeReceipt(ctx context.Context, pc *PromptContext) (string, error)
}

// FileUploader pushes a raw file buffer into the blob store.
type FileUploader interface {
	UploadBuffer(ctx context.Context, data []byte, filename string) (*cloudinary.UploadResult, error)
}

// ReceiptService orchestrates one receipt submission end to end: normalize,
// extract, summarize, encrypt, persist. Summarization and extraction are
// both allowed to fail without failing the request.
type ReceiptService struct {
	repo       ReceiptRepository
	extractor  TextExtractor
	summarizer Summarizer
	uploader   FileUploader
	vault      *crypto.Vault
	logger     *zap.Logger
}

func NewReceiptService(
	repo ReceiptRepository,
	extractor TextExtractor,
	summarizer Summarizer,
	uploader FileUploader,
	vault *crypto.Vault,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		repo:       repo,
		extractor:  extractor,
		summarizer: summarizer,
		uploader:   uploader,
		vault:      vault,
		logger:     logger,
	}
}

// normalizedPayload keeps both the parsed values for storage and the raw
// strings for the prompt.
type normalizedPayload struct {
	UserID      string
	Vendor      string
	Date        time.Time
	Items       []string
	TotalAmount float64
	TotalRaw    string
	DateRaw     string
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func normalizePayload(req *dto.CreateReceiptRequest) (*normalizedPayload, error) {
	userID := strings.TrimSpace(firstNonEmpty(req.UserID, req.UserIDAlt))
	vendor := strings.TrimSpace(req.Vendor)
	dateRaw := strings.TrimSpace(req.Date)
	totalRaw := strings.TrimSpace(string(req.Total))

	if userID == "" {
		return nil, apperr.Validation("userId (or user_id) is required")
	}
	if vendor == "" {
		return nil, apperr.Validation("vendor is required")
	}
	if dateRaw == "" {
		return nil, apperr.Validation("date is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("items array is required")
	}
	if totalRaw == "" {
		return nil, apperr.Validation("total is required")
	}

	return &normalizedPayload{
		UserID:      userID,
		Vendor:      vendor,
		Date:        parseDate(dateRaw),
		Items:       req.Items,
		TotalAmount: parseAmount(totalRaw),
		TotalRaw:    totalRaw,
		DateRaw:     dateRaw,
	}, nil
}

// parseDate falls back to the current time rather than rejecting the
// receipt: a bad client date must never block creation.
func parseDate(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

// parseAmount strips everything except digits, '.' and '-' before parsing.
// This is deliberately locale-naive (thousands separators in some locales
// parse wrong) and is kept as-is because stored totals depend on it.
func parseAmount(raw string) float64 {
	var sb strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			sb.WriteRune(r)
		}
	}

	value, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		return 0
	}
	return value
}

// CreateReceipt runs the full submission chain and returns the stored record
// with the plaintext summary.
func (s *ReceiptService) CreateReceipt(ctx context.Context, req *dto.CreateReceiptRequest) (*dto.CreateReceiptResponse, error) {
	payload, err := normalizePayload(req)
	if err != nil {
		return nil, err
	}

	fileURL := strings.TrimSpace(firstNonEmpty(req.CloudinaryFileURL, req.CloudinaryFileURLAlt))
	ocrText := firstNonEmpty(req.OCRText, req.OCRTextAlt)

	// Backend OCR fallback: when the client sent no OCR text but did send a
	// file reference, extract the text here for best summary accuracy.
	if ocrText == "" && fileURL != "" {
		ocrText = s.extractor.ExtractTextFromURL(ctx, fileURL)
	}

	ocrJSON := req.OCRJSON
	if len(ocrJSON) == 0 {
		ocrJSON = req.OCRJSONAlt
	}

	promptContext := &PromptContext{
		CloudinaryFileURL: fileURL,
		DocumentType:      strings.TrimSpace(firstNonEmpty(req.DocumentType, req.DocumentTypeAlt)),
		OCRText:           ocrText,
		OCRJSON:           ocrJSON,
		Receipt: &ReceiptFields{
			Vendor: payload.Vendor,
			Date:   payload.DateRaw,
			Items:  payload.Items,
			Total:  payload.TotalRaw,
		},
	}

	summary, err := s.summarizer.SummarizeReceipt(ctx, promptContext)
	if err != nil {
		// The record is still created; the failure stays visible to the
		// end user through the fallback text.
		s.logger.Error("Receipt summarization failed", zap.Error(err))
		summary = "Summary temporarily unavailable: " + err.Error()
	}

	encrypted, err := s.vault.Encrypt(summary)
	if err != nil {
		return nil, apperr.Internal("Failed to create receipt", fmt.Errorf("failed to encrypt summary: %w", err))
	}

	receipt := &models.Receipt{
		ID:               uuid.New(),
		UserID:           payload.UserID,
		Vendor:           payload.Vendor,
		Date:             payload.Date,
		CloudinaryURL:    fileURL,
		RawItems:         payload.Items,
		TotalAmount:      payload.TotalAmount,
		SummaryEncrypted: encrypted,
		CreatedAt:        time.Now(),
	}

	if err := s.repo.Create(ctx, receipt); err != nil {
		return nil, apperr.Internal("Failed to create receipt", err)
	}

	return &dto.CreateReceiptResponse{
		Success: true,
		Receipt: toReceiptResponse(receipt),
		Summary: summary,
	}, nil
}

// GetReceipt returns one record with its decrypted summary.
func (s *ReceiptService) GetReceipt(ctx context.Context, id string) (*dto.GetReceiptResponse, error) {
	receipt, err := s.findReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.vault.Decrypt(receipt.SummaryEncrypted)
	if err != nil {
		// Tag mismatch means tampering or a key change; never mask it.
		return nil, apperr.Internal("Failed to fetch receipt", err)
	}

	return &dto.GetReceiptResponse{
		Success: true,
		Receipt: toReceiptResponse(receipt),
		Summary: summary,
	}, nil
}

// ListReceipts returns the user's receipts newest first, without summaries.
func (s *ReceiptService) ListReceipts(ctx context.Context, userID string) (*dto.ListReceiptsResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("userId (or user_id) query parameter is required")
	}

	receipts, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to list receipts", err)
	}

	items := make([]dto.ReceiptListItem, len(receipts))
	for i, receipt := range receipts {
		items[i] = dto.ReceiptListItem{
			ID:            receipt.ID.String(),
			Vendor:        receipt.Vendor,
			Date:          receipt.Date.Format(time.RFC3339),
			CloudinaryURL: receipt.CloudinaryURL,
			TotalAmount:   receipt.TotalAmount,
			CreatedAt:     receipt.CreatedAt.Format(time.RFC3339),
		}
	}

	return &dto.ListReceiptsResponse{Success: true, Receipts: items}, nil
}

// DeleteReceipt removes a record. When the caller supplies a userId it must
// match the stored owner.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, id, userID string) (*dto.MessageResponse, error) {
	receipt, err := s.findReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	userID = strings.TrimSpace(userID)
	if userID != "" && userID != receipt.UserID {
		return nil, apperr.Forbidden("User not authorized to delete this receipt")
	}

	if err := s.repo.Delete(ctx, receipt.ID); err != nil {
		return nil, apperr.Internal("Failed to delete receipt", err)
	}

	return &dto.MessageResponse{Success: true, Message: "Receipt deleted successfully"}, nil
}

// UploadFile pushes a raw receipt file into the blob store. No record is
// created; the client follows up with a create call carrying the URL.
func (s *ReceiptService) UploadFile(ctx context.Context, data []byte, filename string) (*dto.UploadResponse, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("Uploaded file buffer is empty.")
	}

	result, err := s.uploader.UploadBuffer(ctx, data, filename)
	if err != nil {
		return nil, apperr.Internal("Failed to upload file to Cloudinary", err)
	}

	return &dto.UploadResponse{
		Success:      true,
		URL:          result.SecureURL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
	}, nil
}

func (s *ReceiptService) findReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	receiptID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("Receipt not found")
	}

	receipt, err := s.repo.GetByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, ErrReceiptNotFound) {
			return nil, apperr.NotFound("Receipt not found")
		}
		return nil, apperr.Internal("Failed to fetch receipt", err)
	}

	return receipt, nil
}

func toReceiptResponse(receipt *models.Receipt) dto.ReceiptResponse {
	return dto.ReceiptResponse{
		ID:            receipt.ID.String(),
		UserID:        receipt.UserID,
		Vendor:        receipt.Vendor,
		Date:          receipt.Date.Format(time.RFC3339),
		CloudinaryURL: receipt.CloudinaryURL,
		RawItems:      receipt.RawItems,
		TotalAmount:   receipt.TotalAmount,
		CreatedAt:     receipt.CreatedAt.Format(time.RFC3339),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

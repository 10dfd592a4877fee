package handlers

import (
	"errors"
	"io"

	"github.com/yasuo72/recipt-backend/internal/apperr"
	"github.com/yasuo72/recipt-backend/internal/dto"
	"github.com/yasuo72/recipt-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		logger:         logger,
	}
}

// CreateReceipt godoc
// @Summary Create a receipt with an AI summary
// @Description Accepts cleaned OCR JSON, generates and encrypts a Gemini summary, stores the record
// @Tags receipts
// @Accept json
// @Produce json
// @Success 201 {object} dto.CreateReceiptResponse
// @Failure 400 {object} dto.MessageResponse
// @Router /api/receipts [post]
func (h *ReceiptHandler) CreateReceipt(c *fiber.Ctx) error {
	var req dto.CreateReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, apperr.Validation("Invalid request body"))
	}

	resp, err := h.receiptService.CreateReceipt(c.Context(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UploadFile godoc
// @Summary Upload a receipt file
// @Description Uploads a raw image/PDF to the blob store and returns its URL; no record is created
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt file (image or PDF)"
// @Success 201 {object} dto.UploadResponse
// @Failure 400 {object} dto.MessageResponse
// @Failure 500 {object} dto.MessageResponse
// @Router /api/receipts/upload [post]
func (h *ReceiptHandler) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, apperr.Validation("No file uploaded. Please include a file field."))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, h.logger, apperr.Validation("Failed to open uploaded file"))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, h.logger, apperr.Internal("Failed to upload file to Cloudinary", err))
	}

	resp, err := h.receiptService.UploadFile(c.Context(), data, fileHeader.Filename)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListReceipts godoc
// @Summary List a user's receipts
// @Description Returns receipts for the given userId, newest first, without summaries
// @Tags receipts
// @Produce json
// @Param userId query string true "Owner user id"
// @Success 200 {object} dto.ListReceiptsResponse
// @Failure 400 {object} dto.MessageResponse
// @Router /api/receipts [get]
func (h *ReceiptHandler) ListReceipts(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.Query("user_id")
	}

	resp, err := h.receiptService.ListReceipts(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(resp)
}

// GetReceipt godoc
// @Summary Fetch one receipt
// @Description Returns a single receipt with its decrypted summary
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} dto.GetReceiptResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /api/receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c *fiber.Ctx) error {
	resp, err := h.receiptService.GetReceipt(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(resp)
}

// DeleteReceipt godoc
// @Summary Delete a receipt
// @Description Deletes a stored receipt; a supplied userId must match the owner
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Param userId query string false "Owner user id"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.MessageResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /api/receipts/{id} [delete]
func (h *ReceiptHandler) DeleteReceipt(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.Query("user_id")
	}

	resp, err := h.receiptService.DeleteReceipt(c.Context(), c.Params("id"), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(resp)
}

// respondError maps service errors onto the HTTP contract. Internal details
// are logged server-side; the client sees the generic message only.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("Internal server error", err)
	}

	status := fiber.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = fiber.StatusBadRequest
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindForbidden:
		status = fiber.StatusForbidden
	}

	if appErr.Kind == apperr.KindInternal {
		logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Error(appErr),
		)
	}

	return c.Status(status).JSON(dto.MessageResponse{
		Success: false,
		Message: appErr.Message,
	})
}

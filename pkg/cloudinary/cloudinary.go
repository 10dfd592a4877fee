package cloudinary

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yasuo72/recipt-backend/pkg/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// UploadResult is the slice of Cloudinary's response the API exposes.
type UploadResult struct {
	SecureURL    string
	PublicID     string
	ResourceType string
}

// Uploader streams uploaded receipt files into Cloudinary. Files are held in
// memory only; nothing is written to local disk.
type Uploader struct {
	client *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

func NewUploader(cfg *config.CloudinaryConfig, logger *zap.Logger) (*Uploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		logger.Warn("Cloudinary env vars are not fully configured; file uploads will fail until CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, and CLOUDINARY_API_SECRET are set")
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return &Uploader{
		client: client,
		folder: cfg.Folder,
		logger: logger,
	}, nil
}

// UploadBuffer uploads data under the configured folder. The public id is
// derived from the original filename when one is provided.
func (u *Uploader) UploadBuffer(ctx context.Context, data []byte, filename string) (*UploadResult, error) {
	params := uploader.UploadParams{
		Folder:       u.folder,
		ResourceType: "auto",
	}

	if filename != "" {
		ext := filepath.Ext(filename)
		baseName := strings.TrimSuffix(filename, ext)
		if baseName == "" {
			baseName = filename
		}
		params.PublicID = baseName
	}

	result, err := u.client.Upload.Upload(ctx, bytes.NewReader(data), params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	u.logger.Info("File uploaded to Cloudinary",
		zap.String("public_id", result.PublicID),
		zap.String("resource_type", result.ResourceType),
	)

	return &UploadResult{
		SecureURL:    result.SecureURL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
	}, nil
}

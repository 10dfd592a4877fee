package repository

import (
	"context"
	"errors"

	"github.com/yasuo72/recipt-backend/internal/models"
	"github.com/yasuo72/recipt-backend/internal/service"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const receiptColumns = "id, user_id, vendor, date, cloudinary_url, raw_items, total_amount, summary_encrypted, created_at"

type ReceiptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the receipts table when it does not exist yet. The
// canonical DDL lives in migrations/001_receipts.sql.
func (r *ReceiptRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS receipts (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			vendor TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			cloudinary_url TEXT NOT NULL DEFAULT '',
			raw_items TEXT[] NOT NULL,
			total_amount DOUBLE PRECISION NOT NULL,
			summary_encrypted TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_receipts_user_created
			ON receipts (user_id, created_at DESC);
	`)
	return err
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	query := squirrel.Insert("receipts").
		Columns("id", "user_id", "vendor", "date", "cloudinary_url", "raw_items", "total_amount", "summary_encrypted", "created_at").
		Values(receipt.ID, receipt.UserID, receipt.Vendor, receipt.Date, receipt.CloudinaryURL, receipt.RawItems, receipt.TotalAmount, receipt.SummaryEncrypted, receipt.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	query := squirrel.Select(receiptColumns).
		From("receipts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var receipt models.Receipt
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&receipt.ID, &receipt.UserID, &receipt.Vendor, &receipt.Date, &receipt.CloudinaryURL,
		&receipt.RawItems, &receipt.TotalAmount, &receipt.SummaryEncrypted, &receipt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrReceiptNotFound
		}
		return nil, err
	}

	return &receipt, nil
}

// ListByUserID orders by creation time at query time: concurrent submissions
// give no insertion-order guarantee.
func (r *ReceiptRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Receipt, error) {
	query := squirrel.Select(receiptColumns).
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		if err := rows.Scan(
			&receipt.ID, &receipt.UserID, &receipt.Vendor, &receipt.Date, &receipt.CloudinaryURL,
			&receipt.RawItems, &receipt.TotalAmount, &receipt.SummaryEncrypted, &receipt.CreatedAt,
		); err != nil {
			return nil, err
		}
		receipts = append(receipts, &receipt)
	}

	return receipts, rows.Err()
}

func (r *ReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Delete("receipts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return service.ErrReceiptNotFound
	}

	return nil
}

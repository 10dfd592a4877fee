package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is one stored medical-receipt submission. SummaryEncrypted holds
// the vault envelope; plaintext summaries never reach the database.
type Receipt struct {
	ID               uuid.UUID `db:"id"`
	UserID           string    `db:"user_id"`
	Vendor           string    `db:"vendor"`
	Date             time.Time `db:"date"`
	CloudinaryURL    string    `db:"cloudinary_url"`
	RawItems         []string  `db:"raw_items"`
	TotalAmount      float64   `db:"total_amount"`
	SummaryEncrypted string    `db:"summary_encrypted"`
	CreatedAt        time.Time `db:"created_at"`
}

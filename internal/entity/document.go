package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/constants"
)

// Document represents one uploaded bill file for data transfer between layers.
type Document struct {
	ID            uuid.UUID                    `json:"id"`
	FileName      string                       `json:"file_name"`
	FileSize      int64                        `json:"file_size"`
	MediaType     string                       `json:"media_type"`
	StoragePath   string                       `json:"storage_path"`
	Category      string                       `json:"category"`
	PaymentMethod string                       `json:"payment_method"`
	DropName      string                       `json:"drop_name"`
	Notes         string                       `json:"notes"`
	Status        constants.DocumentStatus     `json:"status"`
	Extraction    json.RawMessage              `json:"extraction,omitempty"`
	QualityScore  *float64                     `json:"quality_score,omitempty"`
	Verification  constants.VerificationStatus `json:"verification_status"`
	BillDateLock  bool                         `json:"bill_date_locked"`
	TotalLock     bool                         `json:"total_locked"`
	ProcessingAt  *time.Time                   `json:"processing_at,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// AuditLog records one manual-correction write: old value, new value, actor, reason.
type AuditLog struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

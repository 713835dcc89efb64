package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/constants"
)

// Installment is one declared installment inside PaymentTerms.
// AmountCents of zero means "equal split of the bill total".
type Installment struct {
	DueDate     *time.Time `json:"due_date,omitempty"`
	AmountCents int64      `json:"amount_cents,omitempty"`
}

// PaymentTerms describes how a bill is to be settled.
type PaymentTerms struct {
	ID           uuid.UUID     `json:"id"`
	BillID       uuid.UUID     `json:"bill_id"`
	Type         string        `json:"type"` // FULL | ADVANCE | NET_<n> | INSTALLMENTS | ""
	AdvancePct   *float64      `json:"advance_percentage,omitempty"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	Installments []Installment `json:"installments,omitempty"`
}

// PaymentScheduleEntry is one due-date row derived from PaymentTerms.
// Invariant: sum of AmountDueCents across a bill's entries equals the bill total.
type PaymentScheduleEntry struct {
	ID              uuid.UUID                `json:"id"`
	BillID          uuid.UUID                `json:"bill_id"`
	Seq             int                      `json:"seq"`
	DueDate         time.Time                `json:"due_date"`
	AmountDueCents  int64                    `json:"amount_due_cents"`
	AmountPaidCents int64                    `json:"amount_paid_cents"`
	Status          constants.ScheduleStatus `json:"status"`
}

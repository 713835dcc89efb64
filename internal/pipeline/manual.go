package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
	"github.com/ledgerline/billpipe/internal/extract"
	"github.com/ledgerline/billpipe/internal/normalize"
)

// ManualInput is a complete human-entered bill. It flows through the same
// normalizer, schedule and ledger stages as automated extraction, with
// confidence pinned to 1.0 and provider tagged manual.
type ManualInput struct {
	VendorName string             `json:"vendor_name"`
	BillNumber string             `json:"bill_number,omitempty"`
	BillDate   string             `json:"bill_date,omitempty"` // YYYY-MM-DD
	Subtotal   string             `json:"subtotal,omitempty"`
	TaxAmount  string             `json:"tax_amount,omitempty"`
	Total      string             `json:"total"`
	Category   string             `json:"category,omitempty"`
	LineItems  []extract.LineItem `json:"line_items,omitempty"`

	Terms *entity.PaymentTerms `json:"payment_terms,omitempty"`

	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// ApplyManual replaces a document's bill with human-entered values. Every
// change to a previously extracted date or total is audited, and both fields
// are locked afterwards so reprocessing cannot undo the correction.
func (p *Processor) ApplyManual(ctx context.Context, documentID uuid.UUID, in ManualInput) (*entity.Bill, error) {
	if strings.TrimSpace(in.Actor) == "" {
		return nil, common.InvalidArgumentError("actor is required for manual entry")
	}

	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	res := extract.Result{
		Provider: extract.ProviderManual,
		Fields: extract.Fields{
			VendorName: in.VendorName,
			BillNumber: in.BillNumber,
			BillDate:   in.BillDate,
			Subtotal:   in.Subtotal,
			TaxAmount:  in.TaxAmount,
			Total:      in.Total,
			LineItems:  in.LineItems,
			Confidence: 1.0,
		},
	}

	category := in.Category
	if strings.TrimSpace(category) == "" {
		category = doc.Category
	}
	nb, err := p.norm.Normalize(res, category)
	if err != nil {
		// manual entry must be complete; insufficiency is the caller's error
		return nil, common.InvalidArgumentError(err.Error())
	}

	if err := p.auditManualChanges(ctx, doc, nb.BillDate, nb.TotalCents, in); err != nil {
		return nil, err
	}

	bill, err := p.finalizeBill(ctx, doc, nb, in.Terms)
	if err != nil {
		return nil, err
	}

	if err := p.docs.SetLocks(ctx, doc.ID, true, true); err != nil {
		return nil, err
	}
	if err := p.docs.SetVerification(ctx, doc.ID, constants.VerifyVerified); err != nil {
		return nil, err
	}
	if err := p.docs.Finish(ctx, doc.ID, constants.DocStatusProcessed, ""); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline.manual_applied",
		"document_id", doc.ID,
		"bill_id", bill.ID,
		"actor", in.Actor,
	)
	return bill, nil
}

// auditManualChanges writes one audit row per corrected key field before the
// correction lands.
func (p *Processor) auditManualChanges(ctx context.Context, doc *entity.Document, newDate *time.Time, newTotalCents int64, in ManualInput) error {
	prev, err := p.bills.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		// first manual entry for a document with no prior bill
		prev = nil
	}

	var logs []*entity.AuditLog
	add := func(field, oldV, newV string) {
		if oldV == newV {
			return
		}
		logs = append(logs, &entity.AuditLog{
			DocumentID: doc.ID,
			Field:      field,
			OldValue:   oldV,
			NewValue:   newV,
			Actor:      in.Actor,
			Reason:     in.Reason,
		})
	}

	oldDate, oldTotal := "", ""
	if prev != nil {
		if prev.BillDate != nil {
			oldDate = prev.BillDate.Format("2006-01-02")
		}
		oldTotal = normalize.FormatCents(prev.TotalCents)
	}
	newDateStr := ""
	if newDate != nil {
		newDateStr = newDate.Format("2006-01-02")
	}
	add("bill_date", oldDate, newDateStr)
	add("total_amount", oldTotal, normalize.FormatCents(newTotalCents))

	if len(logs) == 0 {
		return nil
	}
	return p.audit.Record(ctx, logs...)
}

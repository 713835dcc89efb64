package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
	"github.com/ledgerline/billpipe/internal/extract"
	"github.com/ledgerline/billpipe/internal/ledger"
	"github.com/ledgerline/billpipe/internal/normalize"
	"github.com/ledgerline/billpipe/internal/repository"
	"github.com/ledgerline/billpipe/internal/schedule"
)

// lowConfidence marks results that a human should look at before trusting.
const lowConfidence = 0.5

// Processor drives one document through the full pipeline:
// text extraction -> field extraction -> normalization -> schedule -> ledger.
// Each stage persists its output before the next runs, so a crash mid-way
// never loses completed work.
type Processor struct {
	text    extract.TextExtractor
	orch    *extract.Orchestrator
	norm    *normalize.Normalizer
	sched   *schedule.Generator
	poster  *ledger.Poster
	docs    repository.DocumentRepository
	bills   repository.BillRepository
	vendors repository.VendorRepository
	audit   repository.AuditRepository
	logger  *slog.Logger
}

func NewProcessor(
	text extract.TextExtractor,
	orch *extract.Orchestrator,
	norm *normalize.Normalizer,
	sched *schedule.Generator,
	poster *ledger.Poster,
	docs repository.DocumentRepository,
	bills repository.BillRepository,
	vendors repository.VendorRepository,
	audit repository.AuditRepository,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		text:    text,
		orch:    orch,
		norm:    norm,
		sched:   sched,
		poster:  poster,
		docs:    docs,
		bills:   bills,
		vendors: vendors,
		audit:   audit,
		logger:  logger,
	}
}

// ProcessDocument runs the automated pipeline for one document. Extraction
// insufficiency routes the document to manual_required rather than failing;
// only infrastructure errors surface as errors.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := p.docs.MarkProcessing(ctx, doc.ID); err != nil {
		return err
	}

	textRes, err := p.text.Extract(ctx, doc.StoragePath)
	if err != nil {
		p.logger.Error("pipeline.text_extraction_failed", "document_id", doc.ID, "error", err)
		_ = p.docs.Finish(ctx, doc.ID, constants.DocStatusError, "text extraction failed: "+err.Error())
		return err
	}

	res, err := p.orch.Extract(ctx, textRes.Text)
	if err != nil {
		if errors.Is(err, common.ErrNoText) {
			p.logger.Warn("pipeline.no_text", "document_id", doc.ID, "method", textRes.Method)
			return p.docs.Finish(ctx, doc.ID, constants.DocStatusManualRequired, "no extractable text")
		}
		_ = p.docs.Finish(ctx, doc.ID, constants.DocStatusError, "extraction failed: "+err.Error())
		return err
	}

	blob, err := extract.NewBlob(textRes, res).Marshal()
	if err != nil {
		_ = p.docs.Finish(ctx, doc.ID, constants.DocStatusError, "extraction encode failed")
		return err
	}
	if err := p.docs.SetExtraction(ctx, doc.ID, blob, textRes.Quality); err != nil {
		return err
	}

	nb, err := p.norm.Normalize(res, doc.Category)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			p.logger.Warn("pipeline.insufficient_extraction", "document_id", doc.ID, "error", err)
			return p.docs.Finish(ctx, doc.ID, constants.DocStatusManualRequired, err.Error())
		}
		_ = p.docs.Finish(ctx, doc.ID, constants.DocStatusError, "normalization failed: "+err.Error())
		return err
	}

	// reprocessing never overwrites fields a human has locked
	if doc.BillDateLock || doc.TotalLock {
		if prev, err := p.bills.GetByDocumentID(ctx, doc.ID); err == nil {
			if doc.BillDateLock {
				nb.BillDate = prev.BillDate
			}
			if doc.TotalLock {
				nb.TotalCents = prev.TotalCents
				nb.TaxCents = prev.TaxCents
				nb.SubtotalCents = prev.SubtotalCents
			}
		}
	}

	// terms only exist when a human supplied them; the automated path has
	// none, which the generator treats as settled-now
	if _, err := p.finalizeBill(ctx, doc, nb, nil); err != nil {
		_ = p.docs.Finish(ctx, doc.ID, constants.DocStatusError, "posting failed: "+err.Error())
		return err
	}

	if err := p.docs.SetVerification(ctx, doc.ID, verificationFor(doc, nb)); err != nil {
		return err
	}
	return p.docs.Finish(ctx, doc.ID, constants.DocStatusProcessed, "")
}

// finalizeBill runs the shared pipeline tail: vendor resolution, bill upsert,
// schedule regeneration and ledger posting.
func (p *Processor) finalizeBill(ctx context.Context, doc *entity.Document, nb *normalize.Bill, terms *entity.PaymentTerms) (*entity.Bill, error) {
	vendor, err := p.vendors.GetOrCreateByName(ctx, nb.VendorName)
	if err != nil {
		return nil, err
	}

	bill := &entity.Bill{
		DocumentID:    doc.ID,
		VendorID:      &vendor.ID,
		BillNumber:    nb.BillNumber,
		BillDate:      nb.BillDate,
		SubtotalCents: nb.SubtotalCents,
		TaxCents:      nb.TaxCents,
		TotalCents:    nb.TotalCents,
		Category:      nb.Category,
		CategoryGroup: nb.CategoryGroup,
		PaymentMethod: doc.PaymentMethod,
	}
	for _, it := range nb.Items {
		bill.Items = append(bill.Items, &entity.BillItem{
			LineNumber:     it.LineNumber,
			Description:    it.Description,
			SKU:            it.SKU,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			AmountCents:    it.AmountCents,
		})
	}
	bill, err = p.bills.ReplaceForDocument(ctx, bill)
	if err != nil {
		return nil, err
	}

	// schedule dates anchor on the bill date, falling back to when the bill
	// row was created; a zero CreatedAt must never leak into due dates
	billDate := bill.CreatedAt
	if bill.BillDate != nil {
		billDate = *bill.BillDate
	} else if billDate.IsZero() {
		billDate = time.Now().UTC()
	}
	outcome := p.sched.Generate(terms, billDate, bill.TotalCents)
	if outcome.Reason != "" {
		p.logger.Warn("pipeline.schedule_degraded", "document_id", doc.ID, "reason", outcome.Reason)
	}
	entries := make([]*entity.PaymentScheduleEntry, 0, len(outcome.Rows))
	for _, row := range outcome.Rows {
		entries = append(entries, &entity.PaymentScheduleEntry{
			BillID:          bill.ID,
			Seq:             row.Seq,
			DueDate:         row.DueDate,
			AmountDueCents:  row.AmountDueCents,
			AmountPaidCents: row.AmountPaidCents,
			Status:          row.Status,
		})
	}
	if err := p.bills.ReplaceTermsAndSchedule(ctx, bill.ID, terms, entries); err != nil {
		return nil, err
	}
	if err := p.bills.SetPaymentStatus(ctx, bill.ID, outcome.PaymentStatus); err != nil {
		return nil, err
	}

	entry, err := p.poster.Post(ctx, bill, vendor.Name)
	if err != nil {
		return nil, fmt.Errorf("post journal entry: %w", err)
	}
	if err := p.bills.SetJournal(ctx, bill.ID, entry.ID); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline.bill_finalized",
		"document_id", doc.ID,
		"bill_id", bill.ID,
		"vendor", vendor.Name,
		"total_cents", bill.TotalCents,
		"provider", nb.Provider,
		"fallback", nb.Fallback,
		"payment_status", outcome.PaymentStatus,
	)
	return bill, nil
}

// verificationFor derives the document verification status. Both key fields
// locked by a human means verified; degraded or low-confidence extraction
// needs review; everything else stays unverified until someone looks.
func verificationFor(doc *entity.Document, nb *normalize.Bill) constants.VerificationStatus {
	if doc.BillDateLock && doc.TotalLock {
		return constants.VerifyVerified
	}
	if nb.Fallback || nb.Confidence < lowConfidence || nb.BillDate == nil {
		return constants.VerifyNeedsReview
	}
	return constants.VerifyUnverified
}

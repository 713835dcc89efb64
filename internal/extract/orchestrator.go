package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/llm"
)

const maxHints = 5

// Orchestrator picks one of {heuristic-only, hosted-model, rule-fallback} per
// document, under a rolling call budget and an input-length gate. The
// heuristic result is always computed first: it is cheap, it seeds hints for
// the model, and it is the fallback when the model is skipped or fails: a
// transient model outage degrades to "works, lower confidence", not "blocked".
type Orchestrator struct {
	logger        *slog.Logger
	model         llm.FieldExtractor // nil disables the hosted model entirely
	budget        *rate.Limiter
	now           func() time.Time
	maxModelChars int
}

type OrchestratorConfig struct {
	MaxCallsPerMin int // rolling model-call budget
	MaxModelChars  int // documents longer than this are never sent to the model
	Now            func() time.Time
}

func NewOrchestrator(model llm.FieldExtractor, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxCallsPerMin <= 0 {
		cfg.MaxCallsPerMin = 10
	}
	if cfg.MaxModelChars <= 0 {
		cfg.MaxModelChars = 12000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		logger:        logger,
		model:         model,
		budget:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.MaxCallsPerMin)), cfg.MaxCallsPerMin),
		now:           cfg.Now,
		maxModelChars: cfg.MaxModelChars,
	}
}

// Extract runs the layered extraction strategy over raw text.
func (o *Orchestrator) Extract(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)

	heur := Heuristic(text)

	if text == "" || heur == nil {
		o.logger.Warn("orchestrator.no_text", "chars", len(text))
		return Result{}, common.NewAppError("NO_TEXT", "document has no usable text", common.ErrNoText)
	}

	if len(text) > o.maxModelChars {
		o.logger.Info("orchestrator.text_too_long", "chars", len(text), "cap", o.maxModelChars)
		return o.fallback(*heur, ReasonTextTooLong), nil
	}

	if o.model == nil {
		return *heur, nil
	}

	if !o.budget.AllowN(o.now(), 1) {
		o.logger.Warn("orchestrator.throttled", "chars", len(text))
		return o.fallback(*heur, ReasonThrottled), nil
	}

	fields, _, err := o.model.ExtractFields(ctx, llm.ExtractRequest{
		Text:  text,
		Hints: buildHints(heur.Fields),
	})
	if err != nil {
		o.logger.Error("orchestrator.model_failed", "error", err)
		return o.fallback(*heur, ReasonProviderError), nil
	}

	merged, didMerge := mergeModelResult(fields, heur.Fields)
	provider := ProviderModel
	if didMerge {
		provider = ProviderMerged
	}
	o.logger.Info("orchestrator.model_ok",
		"provider", provider,
		"vendor", merged.VendorName,
		"date", merged.BillDate,
		"total", merged.Total,
	)
	return Result{Fields: merged, Provider: provider}, nil
}

// fallback tags a heuristic result as degraded.
func (o *Orchestrator) fallback(heur Result, reason string) Result {
	heur.Fallback = true
	heur.Reason = reason
	return heur
}

// buildHints turns heuristic candidates into model hints, capped at maxHints.
// Hints are candidates the model may use but must validate against the text.
func buildHints(f Fields) []llm.Hint {
	var hints []llm.Hint
	add := func(field, value string) {
		if value != "" && len(hints) < maxHints {
			hints = append(hints, llm.Hint{Field: field, Value: value})
		}
	}
	add("vendor_name", f.VendorName)
	add("total", f.Total)
	add("bill_date", f.BillDate)
	add("tax_amount", f.TaxAmount)
	add("subtotal", f.Subtotal)
	return hints
}

// mergeModelResult backfills missing model fields (vendor, date, total) from
// the heuristic result. Reports whether any backfill happened.
func mergeModelResult(m llm.BillFields, heur Fields) (Fields, bool) {
	out := Fields{
		VendorName: strings.TrimSpace(m.VendorName),
		BillNumber: strings.TrimSpace(m.BillNumber),
		BillDate:   strings.TrimSpace(m.BillDate.Value),
		Subtotal:   strings.TrimSpace(m.Subtotal),
		TaxAmount:  strings.TrimSpace(m.TaxAmount),
		Total:      strings.TrimSpace(m.TotalAmount.Value),
		Confidence: m.TotalAmount.Confidence,
	}
	if out.Confidence == 0 {
		out.Confidence = m.QualityScore
	}
	for _, li := range m.LineItems {
		out.LineItems = append(out.LineItems, LineItem{
			Description: li.Description,
			SKU:         li.SKU,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Amount,
		})
	}

	merged := false
	if out.VendorName == "" && heur.VendorName != "" {
		out.VendorName = heur.VendorName
		merged = true
	}
	if out.BillDate == "" && heur.BillDate != "" {
		out.BillDate = heur.BillDate
		merged = true
	}
	if out.Total == "" && heur.Total != "" {
		out.Total = heur.Total
		merged = true
	}
	if out.Subtotal == "" {
		out.Subtotal = heur.Subtotal
	}
	if out.TaxAmount == "" {
		out.TaxAmount = heur.TaxAmount
	}
	if len(out.LineItems) == 0 {
		out.LineItems = heur.LineItems
	}
	return out, merged
}

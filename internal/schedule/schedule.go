package schedule

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/entity"
)

// Row is one generated payment schedule entry, before persistence.
type Row struct {
	Seq             int
	DueDate         time.Time
	AmountDueCents  int64
	AmountPaidCents int64
	Status          constants.ScheduleStatus
}

// Outcome is the full result of schedule generation: zero or more rows plus
// the bill-level payment status implied by them. Reason is set when a terms
// type could not produce a schedule (missing required inputs).
type Outcome struct {
	Rows          []Row
	PaymentStatus constants.PaymentStatus
	Reason        string
}

// Generator turns payment terms into a payment schedule. Pure state machine:
// no I/O, deterministic, keyed on the terms type.
type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate derives the schedule for a bill.
//
// No actionable terms (no due date, no NET days, no advance pct, no
// installments) creates no rows and marks the bill paid: silence means
// "settled now". Invariant for every branch that does produce rows:
// sum of AmountDueCents equals totalCents exactly.
func (g *Generator) Generate(terms *entity.PaymentTerms, billDate time.Time, totalCents int64) Outcome {
	if terms == nil {
		return Outcome{PaymentStatus: constants.PaymentPaid}
	}

	termsType := strings.ToUpper(strings.TrimSpace(terms.Type))

	if len(terms.Installments) > 0 {
		return g.installments(terms.Installments, totalCents)
	}

	if termsType == string(constants.TermsAdvance) {
		return g.advance(terms, billDate, totalCents)
	}

	if days, ok := constants.ParseNetDays(termsType); ok {
		return Outcome{
			Rows: []Row{{
				Seq:            1,
				DueDate:        billDate.AddDate(0, 0, days),
				AmountDueCents: totalCents,
				Status:         constants.SchedulePending,
			}},
			PaymentStatus: constants.PaymentPending,
		}
	}

	// explicit due date only (no type keyword)
	if terms.DueDate != nil {
		return Outcome{
			Rows: []Row{{
				Seq:            1,
				DueDate:        *terms.DueDate,
				AmountDueCents: totalCents,
				Status:         constants.SchedulePending,
			}},
			PaymentStatus: constants.PaymentPending,
		}
	}

	// FULL or nothing actionable
	return Outcome{PaymentStatus: constants.PaymentPaid}
}

// installments emits one row per installment carrying a due date. Rows without
// an explicit amount share an equal split of the total; the cent remainder
// lands on the last defaulted row so the schedule still sums to the total.
func (g *Generator) installments(ins []entity.Installment, totalCents int64) Outcome {
	usable := make([]entity.Installment, 0, len(ins))
	for _, in := range ins {
		if in.DueDate == nil {
			g.logger.Warn("schedule.installment_skipped", "reason", "missing due date")
			continue
		}
		usable = append(usable, in)
	}
	if len(usable) == 0 {
		return Outcome{PaymentStatus: constants.PaymentPaid, Reason: "no installment has a due date"}
	}

	var explicit int64
	defaulted := 0
	for _, in := range usable {
		if in.AmountCents > 0 {
			explicit += in.AmountCents
		} else {
			defaulted++
		}
	}

	var per, remainder int64
	if defaulted > 0 {
		left := totalCents - explicit
		if left < 0 {
			left = 0
		}
		per = left / int64(defaulted)
		remainder = left - per*int64(defaulted)
	}

	rows := make([]Row, 0, len(usable))
	lastDefaulted := -1
	for _, in := range usable {
		amount := in.AmountCents
		if amount <= 0 {
			amount = per
			lastDefaulted = len(rows)
		}
		rows = append(rows, Row{
			Seq:            len(rows) + 1,
			DueDate:        *in.DueDate,
			AmountDueCents: amount,
			Status:         constants.SchedulePending,
		})
	}
	if lastDefaulted >= 0 {
		rows[lastDefaulted].AmountDueCents += remainder
	}

	return Outcome{Rows: rows, PaymentStatus: constants.PaymentPending}
}

// advance requires both an advance percentage and a balance due date. The
// advance portion is considered settled at bill date; the balance is pending
// at the terms due date. Missing inputs create no schedule; the caller then
// treats the bill as fully paid.
func (g *Generator) advance(terms *entity.PaymentTerms, billDate time.Time, totalCents int64) Outcome {
	if terms.AdvancePct == nil || terms.DueDate == nil {
		g.logger.Warn("schedule.advance_incomplete",
			"has_pct", terms.AdvancePct != nil,
			"has_due_date", terms.DueDate != nil,
		)
		return Outcome{
			PaymentStatus: constants.PaymentPaid,
			Reason:        "ADVANCE terms missing advance percentage or due date",
		}
	}

	advance := int64(math.Round(float64(totalCents) * *terms.AdvancePct / 100))
	if advance < 0 {
		advance = 0
	}
	if advance > totalCents {
		advance = totalCents
	}
	balance := totalCents - advance

	return Outcome{
		Rows: []Row{
			{
				Seq:             1,
				DueDate:         billDate,
				AmountDueCents:  advance,
				AmountPaidCents: advance,
				Status:          constants.SchedulePaid,
			},
			{
				Seq:            2,
				DueDate:        *terms.DueDate,
				AmountDueCents: balance,
				Status:         constants.SchedulePending,
			},
		},
		PaymentStatus: constants.PaymentPartial,
	}
}

package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/normalize"
	"github.com/ledgerline/billpipe/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	bills   repository.BillRepository
	vendors repository.VendorRepository
	logger  *slog.Logger
}

func NewService(bills repository.BillRepository, vendors repository.VendorRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{bills: bills, vendors: vendors, logger: logger}
}

// ExportBillsXLSX returns an XLSX workbook (as bytes) with one row per bill,
// including its schedule position.
func (s *Service) ExportBillsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	bills, err := s.bills.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Bills"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Bill Date",
		"Vendor",
		"Bill Number",
		"Category",
		"Group",
		"Subtotal",
		"Tax",
		"Total",
		"Payment Status",
		"Next Due Date",
		"Outstanding",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, b := range bills {
		vendorName := ""
		if b.VendorID != nil {
			if v, err := s.vendors.GetByID(ctx, *b.VendorID); err == nil {
				vendorName = v.Name
			}
		}

		nextDue, outstanding := s.scheduleSummary(ctx, b.ID)

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if b.BillDate != nil {
			write(1, b.BillDate.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, vendorName)
		write(3, b.BillNumber)
		write(4, string(b.Category))
		write(5, string(b.CategoryGroup))
		write(6, normalize.FormatCents(b.SubtotalCents))
		write(7, normalize.FormatCents(b.TaxCents))
		write(8, normalize.FormatCents(b.TotalCents))
		write(9, string(b.PaymentStatus))
		write(10, nextDue)
		write(11, normalize.FormatCents(outstanding))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // vendor
	_ = f.SetColWidth(sheet, "C", "C", 18) // bill number
	_ = f.SetColWidth(sheet, "D", "E", 22) // category/group
	_ = f.SetColWidth(sheet, "F", "H", 14) // amounts
	_ = f.SetColWidth(sheet, "I", "K", 16) // status/schedule

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(bills),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// scheduleSummary returns the earliest unpaid due date and the total amount
// still outstanding across the bill's schedule.
func (s *Service) scheduleSummary(ctx context.Context, billID uuid.UUID) (string, int64) {
	entries, err := s.bills.GetSchedule(ctx, billID)
	if err != nil {
		return "", 0
	}
	nextDue := ""
	var outstanding int64
	for _, e := range entries {
		if e.Status == constants.SchedulePaid {
			continue
		}
		outstanding += e.AmountDueCents - e.AmountPaidCents
		if nextDue == "" || e.DueDate.Format("2006-01-02") < nextDue {
			nextDue = e.DueDate.Format("2006-01-02")
		}
	}
	return nextDue, outstanding
}

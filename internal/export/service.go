package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

const (
	detailSheet  = "发票明细"
	summarySheet = "报销汇总"

	// the summary body is padded to this many data rows before the subtotal
	minSummaryRows = 5

	DefaultDetailFilename  = "invoice-details.xlsx"
	DefaultSummaryFilename = "reimburse-summary.xlsx"
)

// StateSource is the slice of application state exports read from.
type StateSource interface {
	ListPeople() []entity.Person
	TripInfo() entity.TripInfo
}

// Service produces XLSX bytes for the two export layouts. Only records with
// status success and a known category are included.
type Service struct {
	state  StateSource
	logger *slog.Logger
}

func NewService(state StateSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{state: state, logger: logger}
}

// DetailWorkbook returns the flat detail list: one row per exportable
// invoice, localized category labels.
func (s *Service) DetailWorkbook() ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		return nil, err
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(detailSheet, cell, v)
	}

	headers := []string{"姓名", "学号/工号", "费用类别", "金额", "日期", "发票内容"}
	for i, h := range headers {
		write(i+1, 1, h)
	}

	row := 2
	for _, person := range s.state.ListPeople() {
		for _, inv := range person.Invoices {
			if !inv.Exportable() {
				continue
			}
			write(1, row, person.Name)
			write(2, row, person.Number)
			write(3, row, inv.Category.Label())
			if inv.Amount != nil {
				write(4, row, *inv.Amount)
			}
			write(5, row, inv.Date)
			write(6, row, inv.Description)
			row++
		}
	}

	_ = f.SetColWidth(detailSheet, "A", "B", 14)
	_ = f.SetColWidth(detailSheet, "C", "C", 18)
	_ = f.SetColWidth(detailSheet, "D", "E", 14)
	_ = f.SetColWidth(detailSheet, "F", "F", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.details.ok",
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// SummaryWorkbook returns the reimbursement summary: one row per invoice
// occurrence, grouped by person, categories in the fixed order, a subtotal
// row, then the trip metadata lines.
func (s *Service) SummaryWorkbook() ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(summarySheet, cell, v)
	}

	headers := []string{"姓名", "学号/工号"}
	for _, cat := range constants.SummaryOrder {
		headers = append(headers, cat.Label())
	}
	headers = append(headers, "合计")
	for i, h := range headers {
		write(i+1, 1, h)
	}
	totalCol := len(headers)

	categoryCol := make(map[constants.Category]int, len(constants.SummaryOrder))
	for i, cat := range constants.SummaryOrder {
		categoryCol[cat] = i + 3
	}

	subtotals := make(map[constants.Category]float64, len(constants.SummaryOrder))
	grandTotal := 0.0

	row := 2
	for _, person := range s.state.ListPeople() {
		byCategory := make(map[constants.Category][]entity.Invoice)
		for _, inv := range person.Invoices {
			if !inv.Exportable() {
				continue
			}
			byCategory[inv.Category] = append(byCategory[inv.Category], inv)
		}

		first := true
		for _, cat := range constants.SummaryOrder {
			for _, inv := range byCategory[cat] {
				if first {
					write(1, row, person.Name)
					write(2, row, person.Number)
					first = false
				}
				if inv.Amount != nil {
					write(categoryCol[cat], row, *inv.Amount)
					subtotals[cat] += *inv.Amount
					grandTotal += *inv.Amount
				}
				row++
			}
		}
	}

	// pad so short collections still leave room to fill in by hand
	for row < 2+minSummaryRows {
		row++
	}

	write(1, row, "小计")
	for _, cat := range constants.SummaryOrder {
		write(categoryCol[cat], row, subtotals[cat])
	}
	write(totalCol, row, grandTotal)
	row++

	trip := s.state.TripInfo()
	metadata := []string{
		"出差事由：" + trip.Reason,
		"出差地点：" + trip.Destination,
		"出差日期：" + trip.DateRange,
		"备注：" + trip.Remark,
	}
	for _, line := range metadata {
		write(1, row, line)
		row++
	}

	_ = f.SetColWidth(summarySheet, "A", "B", 14)
	_ = f.SetColWidth(summarySheet, "C", "F", 14)
	_ = f.SetColWidth(summarySheet, "G", "G", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.summary.ok",
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

package printer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/eckcosting/internal/views"
)

const transactionsSheet = "Transactions"

// TransactionsXLSX exports the billing transactions of one period as a
// spreadsheet with a total row
func TransactionsXLSX(period views.Period, res views.PeriodResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(transactionsSheet, "A1", "Supplier")
	f.SetCellValue(transactionsSheet, "B1", period.Supplier)
	f.SetCellValue(transactionsSheet, "C1", "Period")
	f.SetCellValue(transactionsSheet, "D1", period.Label())
	f.SetCellValue(transactionsSheet, "A3", "DN")
	f.SetCellValue(transactionsSheet, "B3", "Approved At")
	f.SetCellValue(transactionsSheet, "C3", "Final Cost")

	// Add data
	row := 4
	for _, r := range res.Records {
		f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", row), r.DNNo)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), r.ApprovedAt)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), r.FinalCost.InexactFloat64())
		row++
	}
	f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), "Total")
	f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), res.Total.InexactFloat64())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

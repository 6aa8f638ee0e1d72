package report

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"poflow/internal"
	"poflow/internal/storage"
)

// WriteRunReport renders the operational snapshot as a workbook: inventory
// overview, restock candidates, queue status and recent deliveries.
func WriteRunReport(db *storage.DB, overview internal.InventoryOverview, suggestions []internal.RestockSuggestion, outputPath string) error {
	f := excelize.NewFile()

	if err := writeOverviewSheet(f, overview); err != nil {
		return err
	}
	if err := writeRestockSheet(f, suggestions); err != nil {
		return err
	}
	if err := writeQueueSheet(f, db); err != nil {
		return err
	}
	if err := writeDeliverySheet(f, db); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeOverviewSheet(f *excelize.File, overview internal.InventoryOverview) error {
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Overview"); err != nil {
		return err
	}
	sheet = "Overview"

	setRow(f, sheet, 1, "total_items", overview.TotalItems)
	setRow(f, sheet, 2, "low_stock_items", overview.LowStockItems)
	setRow(f, sheet, 3, "critical_items", overview.CriticalItems)
	setRow(f, sheet, 4, "total_inventory_value", overview.TotalInventoryValue)
	setRow(f, sheet, 5, "health_score", overview.HealthScore)

	headerRow(f, sheet, 7, []string{"category", "total_items", "low_stock_items", "stock_health"})
	for i, cat := range overview.Categories {
		r := i + 8
		set(f, sheet, 1, r, cat.Category)
		set(f, sheet, 2, r, cat.TotalItems)
		set(f, sheet, 3, r, cat.LowStockItems)
		set(f, sheet, 4, r, cat.StockHealth)
	}
	return nil
}

func writeRestockSheet(f *excelize.File, suggestions []internal.RestockSuggestion) error {
	sheet := "Restock"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headerRow(f, sheet, 1, []string{
		"item_name", "current_stock", "min_threshold", "category",
		"supplier", "supplier_email", "unit_price", "priority", "suggested_order_qty",
	})
	for i, sg := range suggestions {
		r := i + 2
		set(f, sheet, 1, r, sg.ItemName)
		set(f, sheet, 2, r, sg.CurrentStock)
		set(f, sheet, 3, r, sg.MinThreshold)
		set(f, sheet, 4, r, sg.Category)
		set(f, sheet, 5, r, sg.Supplier)
		set(f, sheet, 6, r, sg.SupplierEmail)
		set(f, sheet, 7, r, sg.UnitPrice)
		set(f, sheet, 8, r, sg.Priority)
		set(f, sheet, 9, r, sg.SuggestedOrderQty)
	}
	return nil
}

func writeQueueSheet(f *excelize.File, db *storage.DB) error {
	sheet := "Queue"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	pending, completed, failed, err := db.QueueCounts()
	if err != nil {
		return err
	}
	setRow(f, sheet, 1, "pending", pending)
	setRow(f, sheet, 2, "completed", completed)
	setRow(f, sheet, 3, "failed", failed)
	return nil
}

func writeDeliverySheet(f *excelize.File, db *storage.DB) error {
	sheet := "Deliveries"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	entries, err := db.ListDeliveryLog(200)
	if err != nil {
		return err
	}
	headerRow(f, sheet, 1, []string{"sent_at", "recipient", "subject", "po_number", "kind", "outcome", "detail"})
	for i, e := range entries {
		r := i + 2
		set(f, sheet, 1, r, e.SentAt)
		set(f, sheet, 2, r, e.Recipient)
		set(f, sheet, 3, r, e.Subject)
		set(f, sheet, 4, r, e.PONumber)
		set(f, sheet, 5, r, e.Kind)
		set(f, sheet, 6, r, e.Outcome)
		set(f, sheet, 7, r, e.Detail)
	}
	return nil
}

func headerRow(f *excelize.File, sheet string, row int, headers []string) {
	for i, h := range headers {
		set(f, sheet, i+1, row, h)
	}
}

func setRow(f *excelize.File, sheet string, row int, label string, value any) {
	set(f, sheet, 1, row, label)
	set(f, sheet, 2, row, value)
}

func set(f *excelize.File, sheet string, col, row int, value any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, value)
}

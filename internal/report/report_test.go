package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"poflow/internal"
	"poflow/internal/storage"
)

func TestWriteRunReport(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.SeedSampleInventory(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.InsertDeliveryLog(internal.DeliveryLogEntry{
		Recipient: "orders@papercorp.example.com",
		Subject:   "Purchase Order PO-20260901-0001 from Buyer Corp",
		PONumber:  "PO-20260901-0001",
		Kind:      "purchase_order",
		Outcome:   "sent",
	}); err != nil {
		t.Fatalf("delivery log: %v", err)
	}

	overview := internal.InventoryOverview{
		TotalItems:    8,
		LowStockItems: 5,
		HealthScore:   37.5,
		Categories:    []internal.CategoryHealth{{Category: "Pantry", TotalItems: 2, LowStockItems: 1, StockHealth: 50}},
	}
	suggestions := []internal.RestockSuggestion{
		{ItemName: "Coffee Beans Premium", Priority: internal.RestockCritical, SuggestedOrderQty: 15, Supplier: "Coffee Co"},
	}

	outputPath := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteRunReport(db, overview, suggestions, outputPath); err != nil {
		t.Fatalf("write report: %v", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("report not written: %v", err)
	}

	f, err := excelize.OpenFile(outputPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Overview", "Restock", "Queue", "Deliveries"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Fatalf("missing sheet %s", sheet)
		}
	}

	value, err := f.GetCellValue("Restock", "A2")
	if err != nil || value != "Coffee Beans Premium" {
		t.Fatalf("restock row wrong: %q (%v)", value, err)
	}
}

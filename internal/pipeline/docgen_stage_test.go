package pipeline

import (
	"os"
	"regexp"
	"testing"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/docgen"
)

var rePONumber = regexp.MustCompile(`^PO-\d{8}-\d{4}$`)

func TestGenerateBatchSettlesQueue(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Config{
		OutputDir:   t.TempDir(),
		CompanyName: "Buyer Corp",
		SenderName:  "Procurement",
		TaxRate:     0.18,
		Currency:    "USD",
	}

	req := queuedRequest("Paper Corp", internal.PriorityHigh, 250)
	req.SupplierContact = internal.SupplierContact{ContactPerson: "Sales Team", Email: "orders@papercorp.example.com"}
	req.DeliveryRequirements = internal.DeliveryRequirements{DeliveryDate: "2026-09-08", ShippingMethod: "Standard Ground"}
	req.ValidatedBy = "purchase_validation"
	if err := db.AddToQueue("PQ_1", req); err != nil {
		t.Fatalf("add: %v", err)
	}

	groups, _, err := NewQueueService(db).PendingGroups()
	if err != nil {
		t.Fatalf("groups: %v", err)
	}

	svc := NewDocGenService(db, docgen.NewGenerator(cfg))
	pos, summary := svc.GenerateBatch(groups, []string{"cfo@buyer.example.com"})
	if summary.Failed != 0 {
		t.Fatalf("summary wrong: %+v", summary)
	}
	if len(pos) != 1 {
		t.Fatalf("expected 1 PO, got %d", len(pos))
	}

	po := pos[0]
	if !rePONumber.MatchString(po.PONumber) {
		t.Fatalf("PO number format: %s", po.PONumber)
	}
	info, err := os.Stat(po.PDFFilePath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("PDF not written: %v", err)
	}
	if po.TotalValue != 250 {
		t.Fatalf("total value: %v", po.TotalValue)
	}
	if len(po.CCRecipients) != 1 {
		t.Fatalf("cc recipients not carried: %v", po.CCRecipients)
	}

	pending, _ := db.GetPending()
	if len(pending) != 0 {
		t.Fatalf("queue entry not settled")
	}
	_, completed, _, err := db.QueueCounts()
	if err != nil || completed != 1 {
		t.Fatalf("expected completed=1, got %d (%v)", completed, err)
	}
}

func TestPONumbersIncrementAcrossRuns(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Config{OutputDir: t.TempDir(), TaxRate: 0.18, Currency: "USD"}
	svc := NewDocGenService(db, docgen.NewGenerator(cfg))

	first, err := svc.nextPONumber()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.nextPONumber()
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first == second {
		t.Fatalf("numbers must be unique: %s", first)
	}
	if !rePONumber.MatchString(first) || !rePONumber.MatchString(second) {
		t.Fatalf("format wrong: %s %s", first, second)
	}
}

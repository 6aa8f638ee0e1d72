package pipeline

import (
	"testing"

	"poflow/internal"
)

func queuedRequest(supplier string, priority internal.PriorityLevel, estimated float64) internal.PurchaseRequest {
	return internal.PurchaseRequest{
		SupplierName: supplier,
		LineItems: []internal.RequestLineItem{
			{Description: "Item for " + supplier, Quantity: 1, UnitPrice: estimated, EstimatedTotal: estimated},
		},
		BudgetValidation: internal.BudgetValidation{Approved: true, EstimatedCost: estimated},
		Priority:         priority,
	}
}

func TestPendingGroupsMergesNormalizedSuppliers(t *testing.T) {
	db := openTestDB(t)

	if err := db.AddToQueue("PQ_1", queuedRequest("Paper Corp", internal.PriorityMedium, 100)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := db.AddToQueue("PQ_2", queuedRequest("Tech Hardware", internal.PriorityMedium, 50)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := db.AddToQueue("PQ_3", queuedRequest("  paper  CORP ", internal.PriorityHigh, 25)); err != nil {
		t.Fatalf("add: %v", err)
	}

	groups, summary, err := NewQueueService(db).PendingGroups()
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if summary.Attempted != 3 {
		t.Fatalf("summary wrong: %+v", summary)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	paper := groups[0]
	if paper.Request.SupplierName != "Paper Corp" {
		t.Fatalf("first group should keep the first entry's name, got %s", paper.Request.SupplierName)
	}
	if len(paper.RequestIDs) != 2 || paper.RequestIDs[0] != "PQ_1" || paper.RequestIDs[1] != "PQ_3" {
		t.Fatalf("merge order wrong: %v", paper.RequestIDs)
	}
	if len(paper.Request.LineItems) != 2 {
		t.Fatalf("line items not merged: %d", len(paper.Request.LineItems))
	}
	if paper.Request.BudgetValidation.EstimatedCost != 125 {
		t.Fatalf("cost not summed: %v", paper.Request.BudgetValidation.EstimatedCost)
	}
	if paper.Request.Priority != internal.PriorityHigh {
		t.Fatalf("merged priority should escalate to high")
	}

	if groups[1].Request.SupplierName != "Tech Hardware" {
		t.Fatalf("second group: %s", groups[1].Request.SupplierName)
	}
}

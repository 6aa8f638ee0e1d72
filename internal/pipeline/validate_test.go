package pipeline

import (
	"strings"
	"testing"

	"poflow/internal"
	"poflow/internal/config"
)

func testSuggestions() []internal.RestockSuggestion {
	return []internal.RestockSuggestion{
		{ItemName: "Coffee Beans Premium", CurrentStock: 0, MinThreshold: 15, Category: "Pantry", Supplier: "Coffee Co", SupplierEmail: "wholesale@coffeeco.example.com", UnitPrice: 24.99, Priority: internal.RestockCritical, SuggestedOrderQty: 15},
		{ItemName: "Office Paper A4", CurrentStock: 5, MinThreshold: 20, Category: "Office Supplies", Supplier: "Paper Corp", SupplierEmail: "orders@papercorp.example.com", UnitPrice: 12.50, Priority: internal.RestockHigh, SuggestedOrderQty: 20},
		{ItemName: "Sticky Notes", CurrentStock: 3, MinThreshold: 25, Category: "Office Supplies", Supplier: "PAPER  corp", SupplierEmail: "orders@papercorp.example.com", UnitPrice: 4.75, Priority: internal.RestockHigh, SuggestedOrderQty: 25},
	}
}

func TestValidateAndEnqueueGroupsBySupplier(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Config{DeliveryAddress: "Dock B", ValidatedBy: "purchase_validation"}
	svc := NewValidationService(db, cfg, config.DefaultRules())

	requests, summary, err := svc.ValidateAndEnqueue(testSuggestions())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 supplier groups, got %d", len(requests))
	}
	if summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("summary wrong: %+v", summary)
	}

	// Group order follows first appearance: Coffee Co then Paper Corp.
	if requests[0].SupplierName != "Coffee Co" {
		t.Fatalf("group order unstable: %s first", requests[0].SupplierName)
	}
	paper := requests[1]
	if len(paper.LineItems) != 2 {
		t.Fatalf("supplier casing should merge into one group: %+v", paper.LineItems)
	}
	if paper.Priority != internal.PriorityHigh {
		t.Fatalf("group with high-urgency lines should be high priority")
	}

	wantCost := 20*12.50 + 25*4.75
	if paper.BudgetValidation.EstimatedCost != wantCost {
		t.Fatalf("estimated cost: got %.2f want %.2f", paper.BudgetValidation.EstimatedCost, wantCost)
	}
	if !paper.BudgetValidation.Approved {
		t.Fatalf("within budget should be approved: %+v", paper.BudgetValidation)
	}
	if paper.BudgetValidation.ApprovalLevel != "Department Manager" {
		t.Fatalf("approval level: got %s", paper.BudgetValidation.ApprovalLevel)
	}

	pending, err := db.GetPending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 queued requests, got %d", len(pending))
	}
	for _, entry := range pending {
		if !strings.HasPrefix(entry.RequestID, "PQ_") {
			t.Fatalf("request id format: %s", entry.RequestID)
		}
	}
}

func TestValidateRejectsOverBudget(t *testing.T) {
	db := openTestDB(t)
	rules := config.DefaultRules()
	rules.ProcurementBudget = config.ProcurementBudget{AnnualBudget: 100, SpentYTD: 0}
	svc := NewValidationService(db, config.Config{}, rules)

	requests, summary, err := svc.ValidateAndEnqueue(testSuggestions())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	// Rejection is an outcome, not a failure.
	if summary.Failed != 0 {
		t.Fatalf("rejections must not count as failures: %+v", summary)
	}
	for _, req := range requests {
		if req.BudgetValidation.Approved {
			t.Fatalf("nothing fits a 100 budget: %+v", req.BudgetValidation)
		}
		if req.BudgetValidation.Reason == "" {
			t.Fatalf("rejected request needs a reason")
		}
	}

	pending, err := db.GetPending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("rejected requests must not reach the queue")
	}
}

func TestBudgetConsumedAcrossGroups(t *testing.T) {
	db := openTestDB(t)
	rules := config.DefaultRules()
	// Enough for the first group (374.85) but not the second (368.75).
	rules.ProcurementBudget = config.ProcurementBudget{AnnualBudget: 400, SpentYTD: 0}
	svc := NewValidationService(db, config.Config{}, rules)

	requests, _, err := svc.ValidateAndEnqueue(testSuggestions())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !requests[0].BudgetValidation.Approved {
		t.Fatalf("first group should fit: %+v", requests[0].BudgetValidation)
	}
	if requests[1].BudgetValidation.Approved {
		t.Fatalf("second group should exceed the remaining budget")
	}
}

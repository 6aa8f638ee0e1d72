package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/storage"
	"poflow/internal/util"
)

var reCodeStrip = regexp.MustCompile(`[^A-Z0-9]+`)

// ValidationService groups restock suggestions by supplier, validates each
// group against the procurement budget and enqueues approved requests.
type ValidationService struct {
	db    *storage.DB
	cfg   config.Config
	rules config.Rules
	now   func() time.Time
}

func NewValidationService(db *storage.DB, cfg config.Config, rules config.Rules) *ValidationService {
	return &ValidationService{db: db, cfg: cfg, rules: rules, now: time.Now}
}

// ValidateAndEnqueue builds one PurchaseRequest per supplier group. Budget is
// consumed in group order; a rejected group is a normal outcome carried in
// budget_validation, never an error. Only approved requests reach the queue.
func (s *ValidationService) ValidateAndEnqueue(suggestions []internal.RestockSuggestion) ([]internal.PurchaseRequest, internal.StageSummary, error) {
	summary := internal.StageSummary{Stage: "validation"}

	groups, order := groupBySupplier(suggestions)
	remaining := s.rules.ProcurementBudget.Remaining()
	requestDate := s.now().UTC().Format("2006-01-02")

	out := make([]internal.PurchaseRequest, 0, len(order))
	for _, key := range order {
		group := groups[key]
		req := s.buildRequest(group, requestDate)

		cost := req.BudgetValidation.EstimatedCost
		req.BudgetValidation.BudgetAvailable = util.Round2(remaining)
		req.BudgetValidation.ApprovalLevel = s.rules.ApprovalLimits.ApprovalLevelFor(cost)

		if cost <= remaining {
			req.BudgetValidation.Approved = true
			remaining -= cost

			id := fmt.Sprintf("PQ_%d_%s", s.now().UnixNano(), uuid.NewString()[:8])
			if err := s.db.AddToQueue(id, req); err != nil {
				summary.RecordFailure(req.SupplierName, err.Error())
				continue
			}
		} else {
			req.BudgetValidation.Reason = fmt.Sprintf(
				"estimated cost %.2f exceeds remaining budget %.2f", cost, remaining)
		}

		summary.RecordSuccess()
		out = append(out, req)
	}

	return out, summary, nil
}

// groupBySupplier partitions by the normalized supplier name, preserving the
// order each supplier first appears.
func groupBySupplier(suggestions []internal.RestockSuggestion) (map[string][]internal.RestockSuggestion, []string) {
	groups := map[string][]internal.RestockSuggestion{}
	var order []string
	for _, sg := range suggestions {
		key := util.NormalizeSupplier(sg.Supplier)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sg)
	}
	return groups, order
}

func (s *ValidationService) buildRequest(group []internal.RestockSuggestion, requestDate string) internal.PurchaseRequest {
	first := group[0]

	lines := make([]internal.RequestLineItem, 0, len(group))
	cost := 0.0
	priority := internal.PriorityMedium
	for _, sg := range group {
		estimated := util.Round2(float64(sg.SuggestedOrderQty) * sg.UnitPrice)
		cost += estimated
		urgency := internal.PriorityMedium
		if sg.Priority == internal.RestockCritical || sg.Priority == internal.RestockHigh {
			urgency = internal.PriorityHigh
			priority = internal.PriorityHigh
		}
		lines = append(lines, internal.RequestLineItem{
			ItemCode:       itemCode(sg.ItemName),
			Description:    sg.ItemName,
			Quantity:       float64(sg.SuggestedOrderQty),
			UnitPrice:      sg.UnitPrice,
			UOM:            "each",
			Urgency:        urgency,
			BudgetCode:     budgetCode(sg.Category),
			EstimatedTotal: estimated,
		})
	}

	return internal.PurchaseRequest{
		SupplierName: first.Supplier,
		SupplierContact: internal.SupplierContact{
			ContactPerson: "Sales Team",
			Email:         first.SupplierEmail,
		},
		LineItems: lines,
		DeliveryRequirements: internal.DeliveryRequirements{
			DeliveryDate:        s.now().UTC().AddDate(0, 0, 7).Format("2006-01-02"),
			ShippingMethod:      "Standard Ground",
			SpecialInstructions: "Deliver to " + s.cfg.DeliveryAddress,
		},
		BudgetValidation: internal.BudgetValidation{
			EstimatedCost: util.Round2(cost),
		},
		Priority:    priority,
		RequestDate: requestDate,
		ValidatedBy: s.cfg.ValidatedBy,
	}
}

func itemCode(name string) string {
	code := reCodeStrip.ReplaceAllString(strings.ToUpper(name), "-")
	code = strings.Trim(code, "-")
	if len(code) > 24 {
		code = code[:24]
	}
	return code
}

func budgetCode(category string) string {
	code := reCodeStrip.ReplaceAllString(strings.ToUpper(category), "-")
	return "OPEX-" + strings.Trim(code, "-")
}

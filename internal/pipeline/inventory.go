package pipeline

import (
	"sort"

	"poflow/internal"
	"poflow/internal/storage"
	"poflow/internal/util"
)

// InventoryService reads current stock and produces the overview plus restock
// suggestions that feed validation.
type InventoryService struct {
	db *storage.DB
}

func NewInventoryService(db *storage.DB) *InventoryService {
	return &InventoryService{db: db}
}

func (s *InventoryService) Overview() (internal.InventoryOverview, error) {
	items, err := s.db.ListInventory()
	if err != nil {
		return internal.InventoryOverview{}, err
	}

	overview := internal.InventoryOverview{TotalItems: len(items)}
	type catAgg struct{ total, low int }
	byCategory := map[string]*catAgg{}

	for _, item := range items {
		overview.TotalInventoryValue += float64(item.Quantity) * item.UnitPrice
		agg := byCategory[item.Category]
		if agg == nil {
			agg = &catAgg{}
			byCategory[item.Category] = agg
		}
		agg.total++
		if item.Quantity <= item.MinThreshold {
			overview.LowStockItems++
			agg.low++
		}
		if item.Quantity <= 0 {
			overview.CriticalItems++
		}
	}
	overview.TotalInventoryValue = util.Round2(overview.TotalInventoryValue)

	if overview.TotalItems > 0 {
		overview.HealthScore = util.Round2((1 - float64(overview.LowStockItems)/float64(overview.TotalItems)) * 100)
	}

	categories := make([]string, 0, len(byCategory))
	for name := range byCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		agg := byCategory[name]
		health := 100.0
		if agg.total > 0 {
			health = util.Round2((1 - float64(agg.low)/float64(agg.total)) * 100)
		}
		overview.Categories = append(overview.Categories, internal.CategoryHealth{
			Category:      name,
			TotalItems:    agg.total,
			LowStockItems: agg.low,
			StockHealth:   health,
		})
	}

	return overview, nil
}

// RestockSuggestions returns one suggestion per item at or below threshold,
// most depleted first (the low-stock query's order).
func (s *InventoryService) RestockSuggestions() ([]internal.RestockSuggestion, internal.StageSummary, error) {
	summary := internal.StageSummary{Stage: "inventory_analysis"}

	low, err := s.db.LowStockItems()
	if err != nil {
		return nil, summary, err
	}

	out := make([]internal.RestockSuggestion, 0, len(low))
	for _, item := range low {
		summary.RecordSuccess()
		out = append(out, internal.RestockSuggestion{
			ItemName:          item.ItemName,
			CurrentStock:      item.Quantity,
			MinThreshold:      item.MinThreshold,
			Category:          item.Category,
			Supplier:          item.Supplier,
			SupplierEmail:     item.SupplierEmail,
			UnitPrice:         item.UnitPrice,
			Priority:          restockPriority(item),
			SuggestedOrderQty: suggestedOrderQty(item),
		})
	}
	return out, summary, nil
}

func restockPriority(item internal.InventoryItem) string {
	switch {
	case item.Quantity <= 0:
		return internal.RestockCritical
	case item.Quantity <= item.MinThreshold/2:
		return internal.RestockHigh
	default:
		return internal.RestockMedium
	}
}

func suggestedOrderQty(item internal.InventoryItem) int {
	if item.MinThreshold > 10 {
		return item.MinThreshold
	}
	return 10
}

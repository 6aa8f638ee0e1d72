package pipeline

import (
	"poflow/internal"
	"poflow/internal/storage"
	"poflow/internal/util"
)

// SupplierGroup is one unit of document generation: every pending queue entry
// for the same supplier merged into a single request.
type SupplierGroup struct {
	RequestIDs []string
	Request    internal.PurchaseRequest
}

// QueueService reads pending purchase requests and partitions them by
// normalized supplier name. The partition is stable: groups appear in the
// order their first entry was enqueued, line items keep enqueue order.
type QueueService struct {
	db *storage.DB
}

func NewQueueService(db *storage.DB) *QueueService {
	return &QueueService{db: db}
}

func (s *QueueService) PendingGroups() ([]SupplierGroup, internal.StageSummary, error) {
	summary := internal.StageSummary{Stage: "queue_processing"}

	entries, err := s.db.GetPending()
	if err != nil {
		return nil, summary, err
	}

	byKey := map[string]int{}
	var groups []SupplierGroup
	for _, entry := range entries {
		summary.RecordSuccess()
		key := util.NormalizeSupplier(entry.Request.SupplierName)
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(groups)
			groups = append(groups, SupplierGroup{
				RequestIDs: []string{entry.RequestID},
				Request:    entry.Request,
			})
			continue
		}

		group := &groups[idx]
		group.RequestIDs = append(group.RequestIDs, entry.RequestID)
		group.Request.LineItems = append(group.Request.LineItems, entry.Request.LineItems...)
		group.Request.BudgetValidation.EstimatedCost = util.Round2(
			group.Request.BudgetValidation.EstimatedCost + entry.Request.BudgetValidation.EstimatedCost)
		if entry.Request.Priority == internal.PriorityHigh {
			group.Request.Priority = internal.PriorityHigh
		}
	}

	return groups, summary, nil
}

package pipeline

import (
	"fmt"
	"path/filepath"

	"poflow/internal"
	"poflow/internal/storage"
	"poflow/internal/util"
)

// clarificationThreshold is the confidence below which the customer gets a
// clarification request instead of an order confirmation.
const clarificationThreshold = 0.7

// RecordService validates extracted orders and persists them into po_records.
type RecordService struct {
	db *storage.DB
}

func NewRecordService(db *storage.DB) *RecordService {
	return &RecordService{db: db}
}

// RecordBatch persists every order that passes validation. Schema violations
// skip the item; the rest of the batch continues.
func (s *RecordService) RecordBatch(orders []internal.ExtractedOrder, records []internal.AttachmentRecord) ([]internal.RecordedOrder, internal.StageSummary) {
	summary := internal.StageSummary{Stage: "recording"}
	bySource := map[string]internal.AttachmentRecord{}
	for _, rec := range records {
		bySource[rec.FilePath] = rec
	}

	out := make([]internal.RecordedOrder, 0, len(orders))
	for _, order := range orders {
		rec := bySource[order.SourceFile]
		recorded, err := s.Record(order, rec)
		if err != nil {
			summary.RecordFailure(order.OrderID, err.Error())
			continue
		}
		summary.RecordSuccess()
		out = append(out, recorded)
	}
	return out, summary
}

func (s *RecordService) Record(order internal.ExtractedOrder, rec internal.AttachmentRecord) (internal.RecordedOrder, error) {
	if err := validateOrder(order); err != nil {
		return internal.RecordedOrder{}, err
	}

	urgent := rec.Priority == internal.PriorityHigh
	action, err := s.db.UpsertPORecord(order, urgent)
	if err != nil {
		return internal.RecordedOrder{}, err
	}

	responseType := "order_confirmation"
	if order.ExtractionConfidence < clarificationThreshold {
		responseType = "clarification_request"
	}

	return internal.RecordedOrder{
		PONumber:     order.OrderID,
		ResponseType: responseType,
		CompanyEmail: order.CustomerDetails.Email,
		PoData:       order,
		Action:       action,
		Urgent:       urgent,
		Status:       internal.StatusPending,
	}, nil
}

// validateOrder enforces the interchange invariants at the stage boundary.
// Money checks use the 0.01 tolerance.
func validateOrder(order internal.ExtractedOrder) error {
	if order.OrderID == "" {
		return fmt.Errorf("%w: missing order_id (%s)", internal.ErrSchemaViolation, filepath.Base(order.SourceFile))
	}
	if order.CustomerDetails.Email == "" {
		return fmt.Errorf("%w: order %s has no customer email", internal.ErrSchemaViolation, order.OrderID)
	}
	if len(order.OrderItems) == 0 {
		return fmt.Errorf("%w: order %s has no line items", internal.ErrSchemaViolation, order.OrderID)
	}

	subtotal := 0.0
	for i, item := range order.OrderItems {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return fmt.Errorf("%w: order %s item %d has invalid quantity or price", internal.ErrSchemaViolation, order.OrderID, i+1)
		}
		expected := util.Round2(item.Quantity * item.UnitPrice)
		if !util.MoneyEquals(item.TotalPrice, expected) {
			return fmt.Errorf("%w: order %s item %d total %.2f != %.2f", internal.ErrSchemaViolation, order.OrderID, i+1, item.TotalPrice, expected)
		}
		subtotal += item.TotalPrice
	}

	totals := order.OrderTotals
	if totals.Subtotal > 0 && !util.MoneyEquals(totals.Subtotal, util.Round2(subtotal)) {
		return fmt.Errorf("%w: order %s subtotal %.2f != sum of items %.2f", internal.ErrSchemaViolation, order.OrderID, totals.Subtotal, subtotal)
	}
	expectedTotal := util.Round2(totals.Subtotal + totals.TaxAmount + totals.ShippingCost)
	if totals.TotalAmount > 0 && !util.MoneyEquals(totals.TotalAmount, expectedTotal) {
		return fmt.Errorf("%w: order %s total %.2f != %.2f", internal.ErrSchemaViolation, order.OrderID, totals.TotalAmount, expectedTotal)
	}
	return nil
}

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"poflow/internal"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

func TestFallbackTextExtraction(t *testing.T) {
	doc := strings.Join([]string{
		"Please process our order:",
		"10 x Blue Pens @ $1.20",
		"5 x Notebooks @ $3.00",
		"Subtotal: 27.00",
		"Total: 27.00",
		"Best regards,",
	}, "\n")
	path := writeDoc(t, "order.txt", doc)

	svc := NewExtractService(nil)
	order, err := svc.Extract(context.Background(), internal.AttachmentRecord{
		FilePath:     path,
		SenderEmail:  "buyer@acme.example.com",
		PONumberHint: "PO-2025-001",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if order.OrderID != "PO-2025-001" {
		t.Fatalf("order id: got %q", order.OrderID)
	}
	if order.ExtractionConfidence != 0.6 {
		t.Fatalf("confidence: got %v", order.ExtractionConfidence)
	}
	if len(order.OrderItems) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(order.OrderItems), order.OrderItems)
	}
	if order.OrderItems[0].Quantity != 10 || order.OrderItems[0].UnitPrice != 1.20 || order.OrderItems[0].TotalPrice != 12 {
		t.Fatalf("first item wrong: %+v", order.OrderItems[0])
	}
	if order.OrderTotals.Subtotal != 27 || order.OrderTotals.TotalAmount != 27 {
		t.Fatalf("totals wrong: %+v", order.OrderTotals)
	}
	if order.CustomerDetails.Email != "buyer@acme.example.com" {
		t.Fatalf("customer email not defaulted: %q", order.CustomerDetails.Email)
	}
}

func TestFallbackHTMLTableExtraction(t *testing.T) {
	html := `<html><body><table>
<tr><th>Item</th><th>Qty</th><th>Unit Price</th></tr>
<tr><td>Blue Pens</td><td>10</td><td>$1.20</td></tr>
<tr><td>Notebooks</td><td>5</td><td>$3.00</td></tr>
</table></body></html>`
	path := writeDoc(t, "body.html", html)

	svc := NewExtractService(nil)
	order, err := svc.Extract(context.Background(), internal.AttachmentRecord{
		FilePath:    path,
		SenderEmail: "buyer@acme.example.com",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(order.OrderItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.OrderItems))
	}
	if order.OrderItems[1].Description != "Notebooks" || order.OrderItems[1].TotalPrice != 15 {
		t.Fatalf("second item wrong: %+v", order.OrderItems[1])
	}
	if order.OrderTotals.Subtotal != 27 {
		t.Fatalf("subtotal not computed from items: %+v", order.OrderTotals)
	}
	if order.ExtractionConfidence != 0.6 {
		t.Fatalf("confidence: got %v", order.ExtractionConfidence)
	}
}

func TestImageAttachmentIsSchemaViolation(t *testing.T) {
	path := writeDoc(t, "scan.png", "not really a png")

	svc := NewExtractService(nil)
	_, err := svc.Extract(context.Background(), internal.AttachmentRecord{FilePath: path})
	if !errors.Is(err, internal.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestBareDocumentGetsLowConfidence(t *testing.T) {
	path := writeDoc(t, "note.txt", "hello, we would like to order some things soon")

	svc := NewExtractService(nil)
	order, err := svc.Extract(context.Background(), internal.AttachmentRecord{
		FilePath:    path,
		SenderEmail: "buyer@acme.example.com",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if order.ExtractionConfidence != 0.3 {
		t.Fatalf("confidence: got %v", order.ExtractionConfidence)
	}
	if !strings.HasPrefix(order.OrderID, "PO_") {
		t.Fatalf("order id should be generated, got %q", order.OrderID)
	}
}

func TestExtractBatchContinuesPastFailures(t *testing.T) {
	good := writeDoc(t, "order.txt", "10 x Blue Pens @ $1.20")
	bad := filepath.Join(t.TempDir(), "missing.pdf")

	svc := NewExtractService(nil)
	orders, summary := svc.ExtractBatch(context.Background(), []internal.AttachmentRecord{
		{FilePath: bad, SenderEmail: "a@b.example.com"},
		{FilePath: good, SenderEmail: "a@b.example.com"},
	})

	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if summary.Attempted != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("summary wrong: %+v", summary)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected failure entry, got %+v", summary.Failures)
	}
}

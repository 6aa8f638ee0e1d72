package pipeline

import (
	"strings"
	"testing"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/mailer"
)

type captureSender struct {
	configured bool
	sent       []mailer.OutboundMessage
	skipped    []mailer.OutboundMessage
}

func (c *captureSender) Configured() bool { return c.configured }

func (c *captureSender) Send(msg mailer.OutboundMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureSender) Skip(msg mailer.OutboundMessage, reason string) {
	c.skipped = append(c.skipped, msg)
}

func TestDecorateSubject(t *testing.T) {
	got := decorateSubject("Purchase order received and confirmed", "PO-2025-001", true)
	want := "[URGENT] Purchase order received and confirmed [PO: PO-2025-001]"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	got = decorateSubject("Clarification needed for your purchase order", "PO-7", false)
	if strings.Contains(got, "[URGENT]") {
		t.Fatalf("non-urgent subject decorated: %q", got)
	}
	if !strings.HasSuffix(got, "[PO: PO-7]") {
		t.Fatalf("missing PO suffix: %q", got)
	}
}

func TestNotifySendsCustomerAndSupervisorPerOrder(t *testing.T) {
	cfg := config.Config{SupervisorEmail: "ops@buyer.example.com"}
	sender := &captureSender{configured: true}
	svc := NewNotifyService(cfg, sender)

	summary := svc.NotifyBatch([]internal.RecordedOrder{
		{PONumber: "PO-2025-001", CompanyEmail: "orders@acme.example.com", ResponseType: "order_confirmation"},
	})

	if summary.Succeeded != 1 || summary.Failed != 0 {
		t.Fatalf("summary wrong: %+v", summary)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("want 2 deliveries per order, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "orders@acme.example.com" {
		t.Fatalf("customer acknowledgment to %q", sender.sent[0].To)
	}
	if sender.sent[1].To != "ops@buyer.example.com" || sender.sent[1].Kind != "supervisor_alert" {
		t.Fatalf("supervisor alert wrong: %+v", sender.sent[1])
	}
	for _, msg := range sender.sent {
		if strings.Contains(msg.Subject, "[URGENT]") {
			t.Fatalf("non-urgent subject decorated: %q", msg.Subject)
		}
	}
}

func TestNotifyUrgentDecoratesSupervisorAlert(t *testing.T) {
	cfg := config.Config{SupervisorEmail: "ops@buyer.example.com"}
	sender := &captureSender{configured: true}
	svc := NewNotifyService(cfg, sender)

	svc.NotifyBatch([]internal.RecordedOrder{
		{PONumber: "PO-8", CompanyEmail: "orders@acme.example.com", ResponseType: "order_confirmation", Urgent: true},
	})

	if len(sender.sent) != 2 {
		t.Fatalf("want 2 deliveries, got %d", len(sender.sent))
	}
	if !strings.HasPrefix(sender.sent[1].Subject, "[URGENT]") {
		t.Fatalf("urgent alert not decorated: %q", sender.sent[1].Subject)
	}
}

func TestNotifyOmitsAlertWithoutSupervisorAddress(t *testing.T) {
	sender := &captureSender{configured: true}
	svc := NewNotifyService(config.Config{}, sender)

	svc.NotifyBatch([]internal.RecordedOrder{
		{PONumber: "PO-5", CompanyEmail: "orders@acme.example.com", ResponseType: "order_confirmation"},
	})

	if len(sender.sent) != 1 {
		t.Fatalf("want customer acknowledgment only, got %d sends", len(sender.sent))
	}
}

func TestNotifyBatchDegradesWithoutSMTP(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Config{SupervisorEmail: "ops@buyer.example.com"} // no SMTP credentials
	svc := NewNotifyService(cfg, mailer.NewMailer(cfg, db))

	summary := svc.NotifyBatch([]internal.RecordedOrder{
		{PONumber: "PO-1", CompanyEmail: "a@b.example.com", ResponseType: "order_confirmation"},
		{PONumber: "PO-2", CompanyEmail: "c@d.example.com", ResponseType: "clarification_request"},
	})

	if summary.Attempted != 2 || summary.Failed != 2 {
		t.Fatalf("summary wrong: %+v", summary)
	}
	for _, f := range summary.Failures {
		if !strings.Contains(f.Reason, "skipped") {
			t.Fatalf("expected skip reason, got %q", f.Reason)
		}
	}

	entries, err := db.ListDeliveryLog(10)
	if err != nil {
		t.Fatalf("list delivery log: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("want one skipped row per recipient (2 customers + 2 alerts), got %d", len(entries))
	}
	for _, e := range entries {
		if e.Outcome != "skipped" {
			t.Fatalf("outcome %q for %s", e.Outcome, e.Recipient)
		}
	}
}

func TestResponseBodyMatchesResponseType(t *testing.T) {
	cfg := config.Config{SenderName: "Procurement", CompanyName: "Buyer Corp"}
	order := internal.RecordedOrder{
		PONumber:     "PO-9",
		ResponseType: "clarification_request",
		PoData: internal.ExtractedOrder{
			CustomerDetails: internal.CustomerDetails{ContactPerson: "Jane"},
		},
	}

	body := responseBody(order, cfg)
	if !strings.Contains(body, "Dear Jane") {
		t.Fatalf("missing salutation: %q", body)
	}
	if !strings.Contains(body, "could not read all of its details") {
		t.Fatalf("clarification body wrong: %q", body)
	}

	order.ResponseType = "order_confirmation"
	order.PoData.OrderTotals = internal.OrderTotals{TotalAmount: 27, Currency: "USD"}
	body = responseBody(order, cfg)
	if !strings.Contains(body, "We confirm receipt of purchase order PO-9") {
		t.Fatalf("confirmation body wrong: %q", body)
	}
}

func TestSupplierNotifyDegradesWithoutSMTP(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Config{}
	svc := NewSupplierNotifyService(cfg, mailer.NewMailer(cfg, db))

	summary := svc.NotifyBatch([]internal.GeneratedPO{
		{PONumber: "PO-20260101-0001", ContactEmail: "sales@supplier.example.com"},
	})
	if summary.Failed != 1 || !strings.Contains(summary.Failures[0].Reason, "skipped") {
		t.Fatalf("summary wrong: %+v", summary)
	}

	entries, err := db.ListDeliveryLog(10)
	if err != nil {
		t.Fatalf("list delivery log: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != "skipped" {
		t.Fatalf("want one skipped delivery row, got %+v", entries)
	}
	if entries[0].Recipient != "sales@supplier.example.com" {
		t.Fatalf("recipient %q", entries[0].Recipient)
	}
}

package pipeline

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/connectors"
	"poflow/internal/storage"
)

func rawMessageWithPDF(subject string) []byte {
	pdfContent := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))
	msg := fmt.Sprintf(`From: Jane Doe <jane@acme.example.com>
To: orders@buyer.example.com
Subject: %s
Message-ID: <msg-1@acme.example.com>
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="XYZ"

--XYZ
Content-Type: text/plain; charset=utf-8

Please find our purchase order attached.

--XYZ
Content-Type: application/pdf; name="order.pdf"
Content-Disposition: attachment; filename="order.pdf"
Content-Transfer-Encoding: base64

%s
--XYZ--
`, subject, pdfContent)
	return []byte(strings.ReplaceAll(msg, "\n", "\r\n"))
}

func rawPlainMessage() []byte {
	msg := `From: Bob <bob@other.example.com>
To: orders@buyer.example.com
Subject: lunch?
Message-ID: <msg-2@other.example.com>
MIME-Version: 1.0
Content-Type: text/plain; charset=utf-8

Want to grab lunch tomorrow?
`
	return []byte(strings.ReplaceAll(msg, "\n", "\r\n"))
}

func storeRaw(t *testing.T, db *storage.DB, provider, messageID string, raw []byte) {
	t.Helper()
	store := connectors.NewMailStoreService(db, t.TempDir())
	_, _, err := store.Store(internal.FetchedMailMessage{
		Provider:   provider,
		MessageID:  messageID,
		Subject:    "stored",
		From:       "someone@example.com",
		ReceivedAt: "2026-09-01T10:00:00Z",
		Raw:        raw,
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
}

func TestProcessFetchedEmitsAttachmentRecords(t *testing.T) {
	db := openTestDB(t)
	storeRaw(t, db, "imap", "<msg-1@acme.example.com>", rawMessageWithPDF("URGENT: Purchase Order PO-2025-001"))

	svc := NewIntakeService(db, config.DefaultRules(), t.TempDir())
	records, summary, err := svc.ProcessFetched(20)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if summary.Failed != 0 {
		t.Fatalf("summary wrong: %+v", summary)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.SenderEmail != "jane@acme.example.com" {
		t.Fatalf("sender: %q", rec.SenderEmail)
	}
	if rec.Priority != internal.PriorityHigh {
		t.Fatalf("urgent subject should classify high, got %s", rec.Priority)
	}
	if rec.PONumberHint != "PO-2025-001" {
		t.Fatalf("po hint: %q", rec.PONumberHint)
	}
	if !strings.HasSuffix(rec.FilePath, "order.pdf") {
		t.Fatalf("attachment path: %q", rec.FilePath)
	}

	// Processed mail never re-enters the batch.
	again, _, err := svc.ProcessFetched(20)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("already-processed email re-emitted records")
	}
}

func TestProcessFetchedSkipsMailWithoutOrders(t *testing.T) {
	db := openTestDB(t)
	storeRaw(t, db, "imap", "<msg-2@other.example.com>", rawPlainMessage())

	svc := NewIntakeService(db, config.DefaultRules(), t.TempDir())
	records, summary, err := svc.ProcessFetched(20)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("chatty mail should not produce records")
	}
	if summary.Attempted != 1 || summary.Failed != 0 {
		t.Fatalf("summary wrong: %+v", summary)
	}

	rows, err := db.ListEmailsByStatus("skipped", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the email marked skipped, got %d", len(rows))
	}
}

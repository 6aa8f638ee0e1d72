package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"poflow/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS inventory (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  itemName TEXT UNIQUE NOT NULL,
  quantity INTEGER NOT NULL,
  unitPrice REAL NOT NULL,
  category TEXT NOT NULL,
  supplier TEXT NOT NULL,
  supplierEmail TEXT NOT NULL,
  minThreshold INTEGER NOT NULL DEFAULT 10,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_inventory_supplier ON inventory(supplier);

CREATE TABLE IF NOT EXISTS po_records (
  orderId TEXT PRIMARY KEY,
  sourceFile TEXT,
  confidence REAL NOT NULL DEFAULT 0,
  companyEmail TEXT,
  urgent INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  payloadJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_po_records_status ON po_records(status);

CREATE TABLE IF NOT EXISTS purchase_queue (
  requestId TEXT PRIMARY KEY,
  supplier TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  requestJson TEXT NOT NULL,
  outcome TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_purchase_queue_status ON purchase_queue(status);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS delivery_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  recipient TEXT NOT NULL,
  subject TEXT,
  poNumber TEXT,
  kind TEXT NOT NULL,
  outcome TEXT NOT NULL,
  detail TEXT,
  sentAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  crew TEXT NOT NULL,
  summariesJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ---- inventory ----

func (d *DB) UpsertInventoryItems(items []internal.InventoryItem) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO inventory (itemName, quantity, unitPrice, category, supplier, supplierEmail, minThreshold, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(itemName) DO UPDATE SET
  quantity=excluded.quantity,
  unitPrice=excluded.unitPrice,
  category=excluded.category,
  supplier=excluded.supplier,
  supplierEmail=excluded.supplierEmail,
  minThreshold=excluded.minThreshold,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(item.ItemName, item.Quantity, item.UnitPrice, item.Category, item.Supplier, item.SupplierEmail, item.MinThreshold); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListInventory() ([]internal.InventoryItem, error) {
	rows, err := d.conn.Query(`
SELECT id, itemName, quantity, unitPrice, category, supplier, supplierEmail, minThreshold
FROM inventory ORDER BY itemName ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.InventoryItem
	for rows.Next() {
		var item internal.InventoryItem
		if err := rows.Scan(&item.ID, &item.ItemName, &item.Quantity, &item.UnitPrice, &item.Category, &item.Supplier, &item.SupplierEmail, &item.MinThreshold); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) LowStockItems() ([]internal.InventoryItem, error) {
	rows, err := d.conn.Query(`
SELECT id, itemName, quantity, unitPrice, category, supplier, supplierEmail, minThreshold
FROM inventory WHERE quantity <= minThreshold ORDER BY quantity ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.InventoryItem
	for rows.Next() {
		var item internal.InventoryItem
		if err := rows.Scan(&item.ID, &item.ItemName, &item.Quantity, &item.UnitPrice, &item.Category, &item.Supplier, &item.SupplierEmail, &item.MinThreshold); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ---- po_records ----

// UpsertPORecord persists an extracted order keyed by order id. Re-recording
// the same order updates the payload in place instead of creating a second
// pending row; the returned action is "inserted" or "updated".
func (d *DB) UpsertPORecord(order internal.ExtractedOrder, urgent bool) (string, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return "", err
	}

	existing, err := d.GetPORecordStatus(order.OrderID)
	if err != nil {
		return "", err
	}

	_, err = d.conn.Exec(`
INSERT INTO po_records (orderId, sourceFile, confidence, companyEmail, urgent, status, payloadJson)
VALUES (?, ?, ?, ?, ?, 'pending', ?)
ON CONFLICT(orderId) DO UPDATE SET
  sourceFile=excluded.sourceFile,
  confidence=excluded.confidence,
  companyEmail=excluded.companyEmail,
  urgent=excluded.urgent,
  payloadJson=excluded.payloadJson,
  updatedAt=CURRENT_TIMESTAMP
`, order.OrderID, order.SourceFile, order.ExtractionConfidence, order.CustomerDetails.Email, boolToInt(urgent), string(payload))
	if err != nil {
		return "", err
	}

	if existing == nil {
		return "inserted", nil
	}
	return "updated", nil
}

func (d *DB) GetPORecordStatus(orderID string) (*internal.QueueStatus, error) {
	var status string
	err := d.conn.QueryRow(`SELECT status FROM po_records WHERE orderId = ?`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := internal.QueueStatus(status)
	return &s, nil
}

func (d *DB) ListPORecordsByStatus(status internal.QueueStatus, limit int) ([]internal.RecordedOrder, error) {
	rows, err := d.conn.Query(`
SELECT orderId, companyEmail, urgent, status, payloadJson
FROM po_records WHERE status = ? ORDER BY createdAt ASC LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RecordedOrder
	for rows.Next() {
		var rec internal.RecordedOrder
		var urgent int
		var st, payload string
		if err := rows.Scan(&rec.PONumber, &rec.CompanyEmail, &urgent, &st, &payload); err != nil {
			return nil, err
		}
		rec.Urgent = urgent != 0
		rec.Status = internal.QueueStatus(st)
		if err := json.Unmarshal([]byte(payload), &rec.PoData); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkPORecordStatus moves a record out of pending. Forward-only: completed
// and failed rows never go back.
func (d *DB) MarkPORecordStatus(orderID string, status internal.QueueStatus) error {
	if status != internal.StatusCompleted && status != internal.StatusFailed {
		return fmt.Errorf("invalid po record transition to %q", status)
	}
	res, err := d.conn.Exec(`
UPDATE po_records SET status = ?, updatedAt = CURRENT_TIMESTAMP
WHERE orderId = ? AND status = 'pending'`, string(status), orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("po record %s is not pending", orderID)
	}
	return nil
}

// ---- purchase_queue ----

func (d *DB) AddToQueue(id string, req internal.PurchaseRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO purchase_queue (requestId, supplier, status, requestJson)
VALUES (?, ?, 'pending', ?)`, id, req.SupplierName, string(payload))
	return err
}

func (d *DB) GetPending() ([]internal.QueueEntry, error) {
	rows, err := d.conn.Query(`
SELECT requestId, status, requestJson, createdAt
FROM purchase_queue WHERE status = 'pending' ORDER BY createdAt ASC, requestId ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QueueEntry
	for rows.Next() {
		var entry internal.QueueEntry
		var status, payload string
		if err := rows.Scan(&entry.RequestID, &status, &payload, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Status = internal.QueueStatus(status)
		if err := json.Unmarshal([]byte(payload), &entry.Request); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// MarkCompleted transitions a queue entry pending -> completed. The guarded
// update rejects any other transition.
func (d *DB) MarkCompleted(requestID, outcome string) error {
	return d.transitionQueue(requestID, internal.StatusCompleted, outcome)
}

func (d *DB) MarkFailed(requestID, reason string) error {
	return d.transitionQueue(requestID, internal.StatusFailed, reason)
}

func (d *DB) transitionQueue(requestID string, status internal.QueueStatus, outcome string) error {
	res, err := d.conn.Exec(`
UPDATE purchase_queue SET status = ?, outcome = ?, updatedAt = CURRENT_TIMESTAMP
WHERE requestId = ? AND status = 'pending'`, string(status), outcome, requestID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("queue entry %s is not pending", requestID)
	}
	return nil
}

func (d *DB) QueueCounts() (pending, completed, failed int, err error) {
	rows, err := d.conn.Query(`SELECT status, COUNT(*) FROM purchase_queue GROUP BY status`)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, 0, err
		}
		switch internal.QueueStatus(status) {
		case internal.StatusPending:
			pending = count
		case internal.StatusCompleted:
			completed = count
		case internal.StatusFailed:
			failed = count
		}
	}
	return pending, completed, failed, rows.Err()
}

// ---- emails ----

// UpsertEmail keys fetched mail on (provider, messageId) so re-ingesting the
// same message is a no-op beyond refreshing headers.
func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (int, bool, error) {
	existingID := 0
	err := d.conn.QueryRow(`SELECT id FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	_, err = d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return 0, false, err
	}

	var id int
	if err := d.conn.QueryRow(`SELECT id FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, existingID == 0, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, COALESCE(subject, ''), COALESCE(sender, ''), COALESCE(receivedAt, ''), hash, status, rawRef
FROM emails WHERE status = ? ORDER BY id ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

// ---- delivery log ----

func (d *DB) InsertDeliveryLog(entry internal.DeliveryLogEntry) error {
	sentAt := entry.SentAt
	if sentAt == "" {
		sentAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := d.conn.Exec(`
INSERT INTO delivery_log (recipient, subject, poNumber, kind, outcome, detail, sentAt)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Recipient, entry.Subject, entry.PONumber, entry.Kind, entry.Outcome, entry.Detail, sentAt)
	return err
}

func (d *DB) ListDeliveryLog(limit int) ([]internal.DeliveryLogEntry, error) {
	rows, err := d.conn.Query(`
SELECT recipient, subject, poNumber, kind, outcome, COALESCE(detail, ''), sentAt
FROM delivery_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DeliveryLogEntry
	for rows.Next() {
		var e internal.DeliveryLogEntry
		if err := rows.Scan(&e.Recipient, &e.Subject, &e.PONumber, &e.Kind, &e.Outcome, &e.Detail, &e.SentAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- runs & metadata ----

func (d *DB) InsertRun(traceID, crew string, summaries []internal.StageSummary) error {
	blob, _ := json.Marshal(summaries)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, crew, summariesJson) VALUES (?, ?, ?)`, traceID, crew, string(blob))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

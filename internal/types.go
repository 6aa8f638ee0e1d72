package internal

type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

type QueueStatus string

const (
	StatusPending   QueueStatus = "pending"
	StatusCompleted QueueStatus = "completed"
	StatusFailed    QueueStatus = "failed"
)

// AttachmentRecord is what the intake stage emits per candidate PO attachment.
type AttachmentRecord struct {
	FilePath     string        `json:"file_path"`
	SenderEmail  string        `json:"sender_email"`
	EmailSubject string        `json:"email_subject"`
	EmailBody    string        `json:"email_body,omitempty"`
	ReceivedDate string        `json:"received_date"`
	Priority     PriorityLevel `json:"priority_level"`
	PONumberHint string        `json:"po_number_hint"`
	MessageHash  string        `json:"message_hash"`
}

type CustomerDetails struct {
	CompanyName     string `json:"company_name"`
	ContactPerson   string `json:"contact_person"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	BillingAddress  string `json:"billing_address"`
	ShippingAddress string `json:"shipping_address"`
}

type OrderItem struct {
	ItemCode       string  `json:"item_code"`
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
	Specifications string  `json:"specifications"`
	DeliveryDate   string  `json:"delivery_date"`
}

type OrderTotals struct {
	Subtotal     float64 `json:"subtotal"`
	TaxAmount    float64 `json:"tax_amount"`
	ShippingCost float64 `json:"shipping_cost"`
	TotalAmount  float64 `json:"total_amount"`
	Currency     string  `json:"currency"`
}

type DeliveryRequirements struct {
	DeliveryDate        string `json:"delivery_date"`
	ShippingMethod      string `json:"shipping_method"`
	SpecialInstructions string `json:"special_instructions"`
}

type PaymentTerms struct {
	Terms   string `json:"terms"`
	DueDate string `json:"due_date"`
}

// ExtractedOrder is the extraction stage's output for one parsed document.
type ExtractedOrder struct {
	OrderID              string               `json:"order_id"`
	SourceFile           string               `json:"source_file"`
	ExtractionConfidence float64              `json:"extraction_confidence"`
	CustomerDetails      CustomerDetails      `json:"customer_details"`
	OrderItems           []OrderItem          `json:"order_items"`
	OrderTotals          OrderTotals          `json:"order_totals"`
	DeliveryRequirements DeliveryRequirements `json:"delivery_requirements"`
	PaymentTerms         PaymentTerms         `json:"payment_terms"`
}

// RecordedOrder is the recording stage's confirmation for one persisted order.
type RecordedOrder struct {
	PONumber     string         `json:"po_number"`
	ResponseType string         `json:"response_type"`
	CompanyEmail string         `json:"company_email"`
	PoData       ExtractedOrder `json:"po_data"`
	Action       string         `json:"action"`
	Urgent       bool           `json:"urgent"`
	Status       QueueStatus    `json:"status"`
}

type SupplierContact struct {
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
}

type RequestLineItem struct {
	ItemCode       string        `json:"item_code"`
	Description    string        `json:"description"`
	Quantity       float64       `json:"quantity"`
	UnitPrice      float64       `json:"unit_price"`
	UOM            string        `json:"uom"`
	Urgency        PriorityLevel `json:"urgency"`
	BudgetCode     string        `json:"budget_code"`
	EstimatedTotal float64       `json:"estimated_total"`
}

type BudgetValidation struct {
	Approved        bool    `json:"approved"`
	BudgetAvailable float64 `json:"budget_available"`
	EstimatedCost   float64 `json:"estimated_cost"`
	ApprovalLevel   string  `json:"approval_level"`
	Reason          string  `json:"reason,omitempty"`
}

// PurchaseRequest is a validated, supplier-grouped restock request awaiting
// document generation.
type PurchaseRequest struct {
	SupplierName         string               `json:"supplier_name"`
	SupplierContact      SupplierContact      `json:"supplier_contact"`
	LineItems            []RequestLineItem    `json:"line_items"`
	DeliveryRequirements DeliveryRequirements `json:"delivery_requirements"`
	BudgetValidation     BudgetValidation     `json:"budget_validation"`
	Priority             PriorityLevel        `json:"priority"`
	RequestDate          string               `json:"request_date"`
	ValidatedBy          string               `json:"validated_by"`
}

// QueueEntry wraps a PurchaseRequest persisted in the purchase queue.
type QueueEntry struct {
	RequestID string          `json:"request_id"`
	Timestamp string          `json:"timestamp"`
	Status    QueueStatus     `json:"status"`
	Request   PurchaseRequest `json:"request"`
	Outcome   string          `json:"outcome,omitempty"`
}

// GeneratedPO describes one rendered purchase-order document.
type GeneratedPO struct {
	SupplierName        string   `json:"supplier_name"`
	ContactPerson       string   `json:"contact_person"`
	ContactEmail        string   `json:"contact_email"`
	PONumber            string   `json:"po_number"`
	PDFFilePath         string   `json:"pdf_file_path"`
	CCRecipients        []string `json:"cc_recipients"`
	DeliveryDate        string   `json:"delivery_date"`
	SpecialInstructions string   `json:"special_instructions"`
	TotalValue          float64  `json:"total_value"`
}

// ItemFailure names one input the stage could not process.
type ItemFailure struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// StageSummary is the per-stage batch report. Per-item failures never abort
// a batch; they land here.
type StageSummary struct {
	Stage     string        `json:"stage"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

func (s *StageSummary) RecordSuccess() {
	s.Attempted++
	s.Succeeded++
}

func (s *StageSummary) RecordFailure(item, reason string) {
	s.Attempted++
	s.Failed++
	s.Failures = append(s.Failures, ItemFailure{Item: item, Reason: reason})
}

// InventoryItem is one row of the inventory table.
type InventoryItem struct {
	ID            int
	ItemName      string
	Quantity      int
	UnitPrice     float64
	Category      string
	Supplier      string
	SupplierEmail string
	MinThreshold  int
}

// Restock priority is its own ladder: critical means the item is out of
// stock, not merely below threshold.
const (
	RestockCritical = "critical"
	RestockHigh     = "high"
	RestockMedium   = "medium"
)

// RestockSuggestion is emitted by the inventory analysis stage for every item
// at or below its threshold.
type RestockSuggestion struct {
	ItemName          string  `json:"item_name"`
	CurrentStock      int     `json:"current_stock"`
	MinThreshold      int     `json:"min_threshold"`
	Category          string  `json:"category"`
	Supplier          string  `json:"supplier"`
	SupplierEmail     string  `json:"supplier_email"`
	UnitPrice         float64 `json:"unit_price"`
	Priority          string  `json:"priority"`
	SuggestedOrderQty int     `json:"suggested_order_qty"`
}

type CategoryHealth struct {
	Category      string  `json:"category"`
	TotalItems    int     `json:"total_items"`
	LowStockItems int     `json:"low_stock_items"`
	StockHealth   float64 `json:"stock_health"`
}

type InventoryOverview struct {
	TotalItems          int              `json:"total_items"`
	LowStockItems       int              `json:"low_stock_items"`
	CriticalItems       int              `json:"critical_items"`
	TotalInventoryValue float64          `json:"total_inventory_value"`
	HealthScore         float64          `json:"health_score"`
	Categories          []CategoryHealth `json:"category_breakdown"`
}

// DeliveryLogEntry records one outbound email attempt.
type DeliveryLogEntry struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	PONumber  string `json:"po_number"`
	Kind      string `json:"kind"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
	SentAt    string `json:"sent_at"`
}

// EmailRow is a fetched message's database row. Status moves
// fetched -> processed | skipped.
type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

// FetchedMailMessage is a raw message pulled from a mail provider.
type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

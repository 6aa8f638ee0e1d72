package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"

	"poflow/internal"
	"poflow/internal/llm"
	"poflow/internal/util"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	reNumber  = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})*(?:\.\d+)?|\$?\d+(?:\.\d+)?`)

	noiseLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^--+$`),
		regexp.MustCompile(`(?i)^(thank|regards|best|sincerely|dear)\b`),
		regexp.MustCompile(`(?i)^(tel|phone|fax|e-?mail)[:\s]`),
		regexp.MustCompile(`(?i)^http`),
	}

	totalKeywords = regexp.MustCompile(`(?i)\b(sub\s*total|subtotal|tax|vat|shipping|freight|grand\s*total|total|amount\s+due|balance)\b`)
)

// ExtractService turns an attachment into an ExtractedOrder. When a Gemini
// client is present the document is structured by the model in JSON mode;
// otherwise (or when the model call fails) a heuristic line parser takes over
// at reduced confidence.
type ExtractService struct {
	llm *llm.Client
}

func NewExtractService(client *llm.Client) *ExtractService {
	return &ExtractService{llm: client}
}

func (s *ExtractService) Extract(ctx context.Context, rec internal.AttachmentRecord) (internal.ExtractedOrder, error) {
	text, err := s.documentText(rec)
	if err != nil {
		return internal.ExtractedOrder{}, err
	}

	if s.llm != nil {
		order, err := s.structureWithModel(ctx, rec, text)
		if err == nil {
			return order, nil
		}
	}

	return s.fallbackStructure(rec, text), nil
}

// ExtractBatch processes every attachment record; per-item failures land in
// the summary and never abort the batch.
func (s *ExtractService) ExtractBatch(ctx context.Context, records []internal.AttachmentRecord) ([]internal.ExtractedOrder, internal.StageSummary) {
	summary := internal.StageSummary{Stage: "extraction"}
	out := make([]internal.ExtractedOrder, 0, len(records))
	for _, rec := range records {
		order, err := s.Extract(ctx, rec)
		if err != nil {
			summary.RecordFailure(filepath.Base(rec.FilePath), err.Error())
			continue
		}
		summary.RecordSuccess()
		out = append(out, order)
	}
	return out, summary
}

func (s *ExtractService) documentText(rec internal.AttachmentRecord) (string, error) {
	content, err := os.ReadFile(rec.FilePath)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(rec.FilePath)) {
	case ".pdf":
		text, err := pdfText(content)
		if err != nil {
			return "", fmt.Errorf("%w: pdf parse %s: %v", internal.ErrSchemaViolation, filepath.Base(rec.FilePath), err)
		}
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: %s has no text layer", internal.ErrSchemaViolation, filepath.Base(rec.FilePath))
		}
		return text, nil
	case ".png", ".jpg", ".jpeg":
		return "", fmt.Errorf("%w: image attachment %s has no text layer", internal.ErrSchemaViolation, filepath.Base(rec.FilePath))
	case ".html", ".htm":
		return string(content), nil
	default:
		return string(content), nil
	}
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *ExtractService) structureWithModel(ctx context.Context, rec internal.AttachmentRecord, text string) (internal.ExtractedOrder, error) {
	prompt := buildExtractionPrompt(rec, text)

	var order internal.ExtractedOrder
	if err := s.llm.StructureJSON(ctx, prompt, &order); err != nil {
		return internal.ExtractedOrder{}, err
	}

	finalizeOrder(&order, rec)
	if len(order.OrderItems) > 0 && order.CustomerDetails.Email != "" {
		order.ExtractionConfidence = 1.0
	} else {
		order.ExtractionConfidence = 0.6
	}
	return order, nil
}

func buildExtractionPrompt(rec internal.AttachmentRecord, text string) string {
	var b strings.Builder
	b.WriteString("Extract the purchase order below into a single JSON object with exactly these keys:\n")
	b.WriteString(`{"order_id":"","customer_details":{"company_name":"","contact_person":"","email":"","phone":"","billing_address":"","shipping_address":""},`)
	b.WriteString(`"order_items":[{"item_code":"","description":"","quantity":0,"unit_price":0,"total_price":0,"specifications":"","delivery_date":""}],`)
	b.WriteString(`"order_totals":{"subtotal":0,"tax_amount":0,"shipping_cost":0,"total_amount":0,"currency":"USD"},`)
	b.WriteString(`"delivery_requirements":{"delivery_date":"","shipping_method":"","special_instructions":""},`)
	b.WriteString(`"payment_terms":{"terms":"","due_date":""}}`)
	b.WriteString("\nUse null-free values; unknown strings are empty, unknown numbers are 0. Reply with the JSON object only.\n\n")
	fmt.Fprintf(&b, "Sender: %s\nSubject: %s\n\nDocument:\n%s\n", rec.SenderEmail, rec.EmailSubject, text)
	return b.String()
}

// fallbackStructure builds an order without the model: heuristic line items
// from text or HTML tables, totals from labeled amount lines. Confidence is
// 0.6 with line items, 0.3 bare.
func (s *ExtractService) fallbackStructure(rec internal.AttachmentRecord, text string) internal.ExtractedOrder {
	var items []internal.OrderItem
	if ext := strings.ToLower(filepath.Ext(rec.FilePath)); ext == ".html" || ext == ".htm" {
		items = parseHTMLItems(text)
	}
	if len(items) == 0 {
		items = parseTextItems(text)
	}

	order := internal.ExtractedOrder{
		OrderItems:  items,
		OrderTotals: parseTotals(text),
	}
	finalizeOrder(&order, rec)

	if len(items) > 0 {
		order.ExtractionConfidence = 0.6
	} else {
		order.ExtractionConfidence = 0.3
	}
	return order
}

// finalizeOrder fills the fields every downstream stage relies on: order id,
// source file, customer email and consistent money fields.
func finalizeOrder(order *internal.ExtractedOrder, rec internal.AttachmentRecord) {
	order.SourceFile = rec.FilePath
	order.OrderID = util.FirstNonEmpty(order.OrderID, rec.PONumberHint, generatedOrderID())
	order.CustomerDetails.Email = util.FirstNonEmpty(order.CustomerDetails.Email, rec.SenderEmail)
	if order.OrderTotals.Currency == "" {
		order.OrderTotals.Currency = "USD"
	}

	subtotal := 0.0
	for i := range order.OrderItems {
		item := &order.OrderItems[i]
		if item.TotalPrice == 0 && item.Quantity > 0 && item.UnitPrice > 0 {
			item.TotalPrice = util.Round2(item.Quantity * item.UnitPrice)
		}
		subtotal += item.TotalPrice
	}
	subtotal = util.Round2(subtotal)

	totals := &order.OrderTotals
	if totals.Subtotal == 0 {
		totals.Subtotal = subtotal
	}
	if totals.TotalAmount == 0 {
		totals.TotalAmount = util.Round2(totals.Subtotal + totals.TaxAmount + totals.ShippingCost)
	}
}

func generatedOrderID() string {
	return "PO_" + time.Now().UTC().Format("20060102150405")
}

func parseTextItems(text string) []internal.OrderItem {
	var out []internal.OrderItem
	for _, line := range splitLines(text) {
		if isNoiseLine(line) || totalKeywords.MatchString(line) {
			continue
		}
		if !reLetters.MatchString(line) {
			continue
		}
		nums := reNumber.FindAllString(line, -1)
		if len(nums) < 2 {
			continue
		}

		qty, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimPrefix(nums[0], "$"), ",", ""), 64)
		if err != nil || qty <= 0 || qty != float64(int64(qty)) {
			continue
		}
		price, ok := util.ParseAmount(nums[len(nums)-1])
		if !ok || price <= 0 {
			continue
		}

		desc := line
		for _, n := range nums {
			desc = strings.Replace(desc, n, " ", 1)
		}
		desc = util.NormalizeSpaces(strings.Trim(desc, " -x@*|$="))
		if desc == "" {
			continue
		}

		out = append(out, internal.OrderItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			TotalPrice:  util.Round2(qty * price),
		})
	}
	return out
}

func parseHTMLItems(html string) []internal.OrderItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []internal.OrderItem
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		var headers []string
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(util.NormalizeSpaces(cell.Text())))
		})

		codeIdx := findHeader(headers, []string{"code", "sku", "item #", "item no"})
		nameIdx := findHeader(headers, []string{"description", "item", "product", "name"})
		qtyIdx := findHeader(headers, []string{"qty", "quantity", "units"})
		priceIdx := findHeader(headers, []string{"unit price", "price", "rate", "cost"})

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) < 2 {
				return
			}

			name := cellAt(cells, nameIdx, 0)
			if name == "" || totalKeywords.MatchString(name) {
				return
			}

			qty, okQty := util.ParseAmount(cellAt(cells, qtyIdx, 1))
			price, okPrice := util.ParseAmount(cellAt(cells, priceIdx, len(cells)-1))
			if !okQty || !okPrice || qty <= 0 || price <= 0 {
				return
			}

			out = append(out, internal.OrderItem{
				ItemCode:    cellAt(cells, codeIdx, -1),
				Description: name,
				Quantity:    qty,
				UnitPrice:   price,
				TotalPrice:  util.Round2(qty * price),
			})
		})
	})
	return out
}

func parseTotals(text string) internal.OrderTotals {
	totals := internal.OrderTotals{Currency: "USD"}
	for _, line := range splitLines(text) {
		lower := strings.ToLower(line)
		amount, ok := util.ParseAmount(line)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(lower, "subtotal") || strings.Contains(lower, "sub total"):
			totals.Subtotal = amount
		case strings.Contains(lower, "tax") || strings.Contains(lower, "vat"):
			totals.TaxAmount = amount
		case strings.Contains(lower, "shipping") || strings.Contains(lower, "freight"):
			totals.ShippingCost = amount
		case strings.Contains(lower, "total"):
			totals.TotalAmount = amount
		}
	}
	return totals
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isNoiseLine(line string) bool {
	for _, re := range noiseLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func findHeader(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func cellAt(cells []string, idx, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return cells[idx]
	}
	if fallback >= 0 && fallback < len(cells) {
		return cells[fallback]
	}
	return ""
}

package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/util"
)

// Generator renders purchase-order PDFs into the output directory.
type Generator struct {
	cfg       config.Config
	outputDir string
}

func NewGenerator(cfg config.Config) *Generator {
	return &Generator{cfg: cfg, outputDir: cfg.OutputDir}
}

// Render writes one PO document and returns its path. Urgent lines carry an
// URGENT marker; totals apply the configured tax rate on top of the subtotal.
func (g *Generator) Render(req internal.PurchaseRequest, poNumber string) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "PURCHASE ORDER", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, poNumber, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+time.Now().UTC().Format("2006-01-02"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.partyBlock(pdf, "FROM", []string{
		g.cfg.CompanyName,
		g.cfg.SenderName,
		g.cfg.ContactEmail,
		g.cfg.ContactPhone,
	})
	g.partyBlock(pdf, "TO", []string{
		req.SupplierName,
		"Attn: " + req.SupplierContact.ContactPerson,
		req.SupplierContact.Email,
	})
	pdf.Ln(2)

	g.lineItemTable(pdf, req.LineItems)
	g.totalsBlock(pdf, req.LineItems)
	g.termsBlock(pdf, req)

	path := filepath.Join(g.outputDir, poNumber+".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) partyBlock(pdf *gofpdf.Fpdf, label string, lines []string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, label+":", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		if line == "" {
			continue
		}
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
}

func (g *Generator) lineItemTable(pdf *gofpdf.Fpdf, items []internal.RequestLineItem) {
	headers := []string{"Code", "Description", "Qty", "UOM", "Unit Price", "Total"}
	widths := []float64{28, 72, 15, 15, 28, 32}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		desc := item.Description
		if item.Urgency == internal.PriorityHigh {
			desc = desc + " (URGENT)"
		}
		pdf.CellFormat(widths[0], 6, item.ItemCode, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.0f", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, item.UOM, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%.2f", item.EstimatedTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
}

func (g *Generator) totalsBlock(pdf *gofpdf.Fpdf, items []internal.RequestLineItem) {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.EstimatedTotal
	}
	subtotal = util.Round2(subtotal)
	tax := util.Round2(subtotal * g.cfg.TaxRate)
	total := util.Round2(subtotal + tax)

	pdf.SetFont("Helvetica", "", 10)
	g.totalRow(pdf, "Subtotal", subtotal)
	g.totalRow(pdf, fmt.Sprintf("Tax (%.0f%%)", g.cfg.TaxRate*100), tax)
	pdf.SetFont("Helvetica", "B", 10)
	g.totalRow(pdf, "TOTAL", total)
	pdf.Ln(4)
}

func (g *Generator) totalRow(pdf *gofpdf.Fpdf, label string, amount float64) {
	pdf.CellFormat(130, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(28, 6, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(32, 6, fmt.Sprintf("%.2f %s", amount, g.cfg.Currency), "", 1, "R", false, 0, "")
}

func (g *Generator) termsBlock(pdf *gofpdf.Fpdf, req internal.PurchaseRequest) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Delivery & Terms", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Requested delivery date: "+req.DeliveryRequirements.DeliveryDate, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Shipping method: "+req.DeliveryRequirements.ShippingMethod, "", 1, "L", false, 0, "")
	if req.DeliveryRequirements.SpecialInstructions != "" {
		pdf.CellFormat(0, 5, req.DeliveryRequirements.SpecialInstructions, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Payment terms: Net 30", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Validated by: "+req.ValidatedBy, "", 1, "L", false, 0, "")
}

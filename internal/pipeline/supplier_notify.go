package pipeline

import (
	"fmt"
	"strings"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/mailer"
)

// SupplierNotifyService emails each generated PO to its supplier with the
// PDF attached and stakeholders on CC.
type SupplierNotifyService struct {
	cfg    config.Config
	mailer MailSender
}

func NewSupplierNotifyService(cfg config.Config, m MailSender) *SupplierNotifyService {
	return &SupplierNotifyService{cfg: cfg, mailer: m}
}

func (s *SupplierNotifyService) NotifyBatch(pos []internal.GeneratedPO) internal.StageSummary {
	summary := internal.StageSummary{Stage: "supplier_notification"}
	for _, po := range pos {
		if po.ContactEmail == "" {
			summary.RecordFailure(po.PONumber, "supplier has no contact email")
			continue
		}

		msg := mailer.OutboundMessage{
			To:          po.ContactEmail,
			CC:          po.CCRecipients,
			Subject:     fmt.Sprintf("Purchase Order %s from %s", po.PONumber, s.cfg.CompanyName),
			Body:        supplierPOBody(po, s.cfg),
			Attachments: []string{po.PDFFilePath},
			PONumber:    po.PONumber,
			Kind:        "purchase_order",
		}
		if !s.mailer.Configured() {
			s.mailer.Skip(msg, "SMTP not configured")
			summary.RecordFailure(po.PONumber, "skipped: SMTP not configured")
			continue
		}

		if err := s.mailer.Send(msg); err != nil {
			summary.RecordFailure(po.PONumber, err.Error())
			continue
		}
		summary.RecordSuccess()
	}
	return summary
}

func supplierPOBody(po internal.GeneratedPO, cfg config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", po.ContactPerson)
	fmt.Fprintf(&b, "Please find attached purchase order %s with a total value of %.2f %s.\n\n",
		po.PONumber, po.TotalValue, cfg.Currency)
	fmt.Fprintf(&b, "Requested delivery date: %s\n", po.DeliveryDate)
	if po.SpecialInstructions != "" {
		fmt.Fprintf(&b, "Delivery instructions: %s\n", po.SpecialInstructions)
	}
	b.WriteString("\nKindly confirm receipt of this order and the expected delivery schedule.\n")
	fmt.Fprintf(&b, "\nBest regards,\n%s\n%s\n", cfg.SenderName, cfg.CompanyName)
	if cfg.ContactEmail != "" {
		fmt.Fprintf(&b, "%s", cfg.ContactEmail)
		if cfg.ContactPhone != "" {
			fmt.Fprintf(&b, " | %s", cfg.ContactPhone)
		}
		b.WriteString("\n")
	}
	return b.String()
}

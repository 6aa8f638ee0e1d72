package pipeline

import (
	"fmt"
	"strings"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/mailer"
)

// MailSender is the outbound surface the notification stages depend on.
type MailSender interface {
	Configured() bool
	Send(msg mailer.OutboundMessage) error
	Skip(msg mailer.OutboundMessage, reason string)
}

// NotifyService sends two emails per recorded order: the customer
// acknowledgment and the internal supervisor alert. Without SMTP credentials
// every delivery degrades to a logged skip; the batch never aborts.
type NotifyService struct {
	cfg    config.Config
	mailer MailSender
}

func NewNotifyService(cfg config.Config, m MailSender) *NotifyService {
	return &NotifyService{cfg: cfg, mailer: m}
}

func (s *NotifyService) NotifyBatch(orders []internal.RecordedOrder) internal.StageSummary {
	summary := internal.StageSummary{Stage: "notification"}
	for _, order := range orders {
		if !s.mailer.Configured() {
			for _, msg := range s.messages(order) {
				s.mailer.Skip(msg, "SMTP not configured")
			}
			summary.RecordFailure(order.PONumber, "skipped: SMTP not configured")
			continue
		}
		if err := s.notifyOne(order); err != nil {
			summary.RecordFailure(order.PONumber, err.Error())
			continue
		}
		summary.RecordSuccess()
	}
	return summary
}

func (s *NotifyService) notifyOne(order internal.RecordedOrder) error {
	for _, msg := range s.messages(order) {
		if err := s.mailer.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// messages builds the customer acknowledgment and, when a supervisor address
// is configured, the internal alert for one recorded order. Urgency only
// decorates subjects; the alert itself goes out for every order.
func (s *NotifyService) messages(order internal.RecordedOrder) []mailer.OutboundMessage {
	msgs := []mailer.OutboundMessage{{
		To:       order.CompanyEmail,
		Subject:  decorateSubject(responseSubject(order), order.PONumber, order.Urgent),
		Body:     responseBody(order, s.cfg),
		PONumber: order.PONumber,
		Kind:     order.ResponseType,
	}}
	if s.cfg.SupervisorEmail != "" {
		msgs = append(msgs, mailer.OutboundMessage{
			To:       s.cfg.SupervisorEmail,
			Subject:  decorateSubject("New purchase order recorded", order.PONumber, order.Urgent),
			Body:     supervisorBody(order),
			PONumber: order.PONumber,
			Kind:     "supervisor_alert",
		})
	}
	return msgs
}

// decorateSubject applies the [URGENT] prefix and [PO: n] suffix convention.
func decorateSubject(base, poNumber string, urgent bool) string {
	subject := base
	if urgent {
		subject = "[URGENT] " + subject
	}
	if poNumber != "" {
		subject = subject + " [PO: " + poNumber + "]"
	}
	return subject
}

func responseSubject(order internal.RecordedOrder) string {
	if order.ResponseType == "clarification_request" {
		return "Clarification needed for your purchase order"
	}
	return "Purchase order received and confirmed"
}

func responseBody(order internal.RecordedOrder, cfg config.Config) string {
	var b strings.Builder
	contact := order.PoData.CustomerDetails.ContactPerson
	if contact == "" {
		contact = "Customer"
	}
	fmt.Fprintf(&b, "Dear %s,\n\n", contact)

	if order.ResponseType == "clarification_request" {
		fmt.Fprintf(&b, "We received your purchase order %s but could not read all of its details.\n", order.PONumber)
		b.WriteString("Please reply with an itemized order (item, quantity, unit price) so we can process it without delay.\n")
	} else {
		fmt.Fprintf(&b, "We confirm receipt of purchase order %s.\n\n", order.PONumber)
		fmt.Fprintf(&b, "Items: %d\n", len(order.PoData.OrderItems))
		fmt.Fprintf(&b, "Order total: %.2f %s\n", order.PoData.OrderTotals.TotalAmount, order.PoData.OrderTotals.Currency)
		b.WriteString("\nYour order is now in processing. We will follow up with delivery details.\n")
	}

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

func supervisorBody(order internal.RecordedOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchase order %s from %s (%s).\n\n",
		order.PONumber, order.PoData.CustomerDetails.CompanyName, order.CompanyEmail)
	fmt.Fprintf(&b, "Items: %d, total %.2f %s, recorded as %s.\n",
		len(order.PoData.OrderItems), order.PoData.OrderTotals.TotalAmount,
		order.PoData.OrderTotals.Currency, order.Action)
	if order.Urgent {
		b.WriteString("Marked high priority. Review and expedite fulfillment.\n")
	}
	return b.String()
}

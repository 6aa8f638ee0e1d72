package mailer

import (
	"fmt"
	"math/rand"
	"time"

	gomail "gopkg.in/gomail.v2"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/storage"
)

// OutboundMessage is one email to deliver. Kind tags the delivery-log row
// (confirmation, clarification, purchase_order, supervisor_alert).
type OutboundMessage struct {
	To          string
	CC          []string
	Subject     string
	Body        string
	Attachments []string
	PONumber    string
	Kind        string
}

type Mailer struct {
	cfg     config.Config
	db      *storage.DB
	dialer  *gomail.Dialer
	limiter *RateLimiter
}

func NewMailer(cfg config.Config, db *storage.DB) *Mailer {
	return &Mailer{
		cfg:     cfg,
		db:      db,
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		limiter: NewRateLimiter(1),
	}
}

func (m *Mailer) Configured() bool {
	return m.cfg.MailerConfigured()
}

// Send delivers one message with retry and records the attempt in the
// delivery log. Missing SMTP credentials fail fast so stages can degrade to
// a skip instead of queueing doomed sends.
func (m *Mailer) Send(msg OutboundMessage) error {
	if !m.Configured() {
		return fmt.Errorf("%w: SMTP_USER / SMTP_PASSWORD", internal.ErrConfigurationMissing)
	}

	mail := gomail.NewMessage()
	mail.SetAddressHeader("From", m.cfg.SMTPUser, m.cfg.SenderName)
	mail.SetHeader("To", msg.To)
	if len(msg.CC) > 0 {
		mail.SetHeader("Cc", msg.CC...)
	}
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", msg.Body)
	for _, path := range msg.Attachments {
		mail.Attach(path)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		m.limiter.WaitTurn()
		if err := m.dialer.DialAndSend(mail); err != nil {
			lastErr = err
			if attempt < 3 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
			}
			continue
		}
		m.log(msg, "sent", "")
		return nil
	}

	m.log(msg, "failed", lastErr.Error())
	return fmt.Errorf("%w: smtp send to %s: %v", internal.ErrExternalCall, msg.To, lastErr)
}

// Skip records a delivery that was never attempted, so the delivery log
// still carries one row per intended recipient.
func (m *Mailer) Skip(msg OutboundMessage, reason string) {
	m.log(msg, "skipped", reason)
}

func (m *Mailer) log(msg OutboundMessage, outcome, detail string) {
	if m.db == nil {
		return
	}
	_ = m.db.InsertDeliveryLog(internal.DeliveryLogEntry{
		Recipient: msg.To,
		Subject:   msg.Subject,
		PONumber:  msg.PONumber,
		Kind:      msg.Kind,
		Outcome:   outcome,
		Detail:    detail,
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

package connectors

import "poflow/internal"

// MailConnector is implemented per provider (imap, gmail). Fetch keeps the raw
// RFC 2822 bytes so parsing happens once, downstream.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}

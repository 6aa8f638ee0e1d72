package connectors

import (
	"strings"

	"poflow/internal/storage"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	selfAddr  string
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
}

// NewFetchService wires a provider connector to the mail store. selfAddr is
// the account's own address; messages it sent (order confirmations, PO
// notifications) are skipped rather than re-ingested as orders.
func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, selfAddr string) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		selfAddr:  strings.ToLower(strings.TrimSpace(selfAddr)),
	}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		if s.selfAddr != "" && strings.Contains(strings.ToLower(msg.From), s.selfAddr) {
			res.Skipped++
			continue
		}
		_, isNew, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		if isNew {
			res.Stored++
		} else {
			res.Skipped++
		}
	}

	return res, nil
}

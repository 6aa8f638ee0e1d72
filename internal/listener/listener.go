package listener

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"poflow/internal/config"
	"poflow/internal/connectors"
	gmailconnector "poflow/internal/connectors/gmail"
	imapconnector "poflow/internal/connectors/imap"
	"poflow/internal/llm"
	"poflow/internal/mailer"
	"poflow/internal/pipeline"
	"poflow/internal/storage"
)

// Service polls the mailbox on an interval and runs the supplier pipeline
// over whatever arrived.
type Service struct {
	db    *storage.DB
	cfg   config.Config
	rules config.Rules
	log   *slog.Logger
}

func NewService(db *storage.DB, cfg config.Config, rules config.Rules, log *slog.Logger) *Service {
	return &Service{db: db, cfg: cfg, rules: rules, log: log}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			if pipeline.Fatal(err) {
				return err
			}
			s.log.Error("listener cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.ListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailProvider))
	conn, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetch := connectors.NewFetchService(s.db, s.cfg.RawMailDir, conn, s.selfAddress(provider))
	result, err := fetch.FetchAndStore(s.cfg.MailLabel, s.cfg.MailFetchMax)
	if err != nil {
		return err
	}
	s.log.Info("mail fetched", "provider", provider, "fetched", result.Fetched, "stored", result.Stored, "skipped", result.Skipped)

	var llmClient *llm.Client
	if s.cfg.GeminiAPIKey != "" {
		llmClient, err = llm.NewClient(s.cfg)
		if err != nil {
			return err
		}
	}

	crew := pipeline.NewCrew(s.db, s.cfg, s.rules, llmClient, mailer.NewMailer(s.cfg, s.db), s.log)
	summaries, err := crew.RunSupplier(ctx)
	if err != nil {
		return err
	}

	for _, sum := range summaries {
		s.log.Info("stage summary", "stage", sum.Stage, "attempted", sum.Attempted, "succeeded", sum.Succeeded, "failed", sum.Failed)
	}
	return nil
}

func (s *Service) selfAddress(provider string) string {
	if provider == "imap" {
		return s.cfg.IMAPUser
	}
	return s.cfg.SMTPUser
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

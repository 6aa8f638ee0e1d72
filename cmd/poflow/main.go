package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/connectors"
	gmailconnector "poflow/internal/connectors/gmail"
	imapconnector "poflow/internal/connectors/imap"
	"poflow/internal/llm"
	"poflow/internal/mailer"
	"poflow/internal/pipeline"
	"poflow/internal/report"
	"poflow/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd := os.Args[1]
	switch cmd {
	case "supplier":
		summaries := runCrew(db, cfg, rules, logger, "supplier")
		printSummaries(summaries)
	case "buyer":
		summaries := runCrew(db, cfg, rules, logger, "buyer")
		printSummaries(summaries)
	case "both":
		summaries := runCrew(db, cfg, rules, logger, "supplier")
		summaries = append(summaries, runCrew(db, cfg, rules, logger, "buyer")...)
		printSummaries(summaries)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "imap|gmail")
		label := fs.String("label", cfg.MailLabel, "mailbox/label")
		max := fs.Int("max", cfg.MailFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, selfAddress(cfg, *provider))
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d\n", *provider, result.Fetched, result.Stored, result.Skipped)
	case "inventory:seed":
		must(db.SeedSampleInventory())
		items, err := db.ListInventory()
		must(err)
		fmt.Printf("inventory seeded: %d items\n", len(items))
	case "queue:status":
		pending, completed, failed, err := db.QueueCounts()
		must(err)
		fmt.Printf("purchase queue: pending=%d completed=%d failed=%d\n", pending, completed, failed)
	case "report:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		outputPath := *out
		if strings.TrimSpace(outputPath) == "" {
			outputPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("run_report_%s.xlsx", time.Now().UTC().Format("20060102_150405")))
		}
		inv := pipeline.NewInventoryService(db)
		overview, err := inv.Overview()
		must(err)
		suggestions, _, err := inv.RestockSuggestions()
		must(err)
		must(report.WriteRunReport(db, overview, suggestions, outputPath))
		fmt.Printf("report written to %s\n", outputPath)
	default:
		usage()
		os.Exit(1)
	}
}

func runCrew(db *storage.DB, cfg config.Config, rules config.Rules, logger *slog.Logger, crew string) []internal.StageSummary {
	var llmClient *llm.Client
	if cfg.GeminiAPIKey != "" {
		var err error
		llmClient, err = llm.NewClient(cfg)
		must(err)
	}

	c := pipeline.NewCrew(db, cfg, rules, llmClient, mailer.NewMailer(cfg, db), logger)

	var summaries []internal.StageSummary
	var err error
	switch crew {
	case "supplier":
		summaries, err = c.RunSupplier(context.Background())
	case "buyer":
		summaries, err = c.RunBuyer(context.Background())
	}
	must(err)
	return summaries
}

func printSummaries(summaries []internal.StageSummary) {
	for _, s := range summaries {
		fmt.Printf("%-22s attempted=%d succeeded=%d failed=%d\n", s.Stage, s.Attempted, s.Succeeded, s.Failed)
		for _, f := range s.Failures {
			fmt.Printf("  %s: %s\n", f.Item, f.Reason)
		}
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func selfAddress(cfg config.Config, provider string) string {
	if strings.ToLower(strings.TrimSpace(provider)) == "imap" {
		return cfg.IMAPUser
	}
	return cfg.SMTPUser
}

func usage() {
	fmt.Println("usage: poflow <command>")
	fmt.Println("commands:")
	fmt.Println("  supplier                 run the supplier pipeline over fetched mail")
	fmt.Println("  buyer                    run the buyer pipeline")
	fmt.Println("  both                     supplier then buyer")
	fmt.Println("  mail:fetch --provider=imap|gmail --label=INBOX --max=50")
	fmt.Println("  inventory:seed           load the sample catalog")
	fmt.Println("  queue:status             purchase queue counters")
	fmt.Println("  report:xlsx [--out=...]  write the run report workbook")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

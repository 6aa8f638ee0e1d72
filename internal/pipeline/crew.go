package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/docgen"
	"poflow/internal/llm"
	"poflow/internal/mailer"
	"poflow/internal/storage"
)

// Crew runs the fixed stage sequences. Stages are strictly ordered: no stage
// starts before the previous one's whole batch has finished. A crew aborts
// only on errors every stage shares (storage, missing configuration);
// per-item failures stay inside stage summaries.
type Crew struct {
	db  *storage.DB
	cfg config.Config
	log *slog.Logger

	intake         *IntakeService
	extract        *ExtractService
	record         *RecordService
	notify         *NotifyService
	inventory      *InventoryService
	validate       *ValidationService
	queue          *QueueService
	docs           *DocGenService
	supplierNotify *SupplierNotifyService
}

func NewCrew(db *storage.DB, cfg config.Config, rules config.Rules, llmClient *llm.Client, m *mailer.Mailer, log *slog.Logger) *Crew {
	return &Crew{
		db:  db,
		cfg: cfg,
		log: log,

		intake:         NewIntakeService(db, rules, cfg.AttachmentsDir),
		extract:        NewExtractService(llmClient),
		record:         NewRecordService(db),
		notify:         NewNotifyService(cfg, m),
		inventory:      NewInventoryService(db),
		validate:       NewValidationService(db, cfg, rules),
		queue:          NewQueueService(db),
		docs:           NewDocGenService(db, docgen.NewGenerator(cfg)),
		supplierNotify: NewSupplierNotifyService(cfg, m),
	}
}

// RunSupplier executes intake -> extraction -> recording -> notification over
// the currently fetched mail.
func (c *Crew) RunSupplier(ctx context.Context) ([]internal.StageSummary, error) {
	traceID := uuid.NewString()
	log := c.log.With("crew", "supplier", "trace_id", traceID)

	var summaries []internal.StageSummary

	attachments, intakeSummary, err := c.intake.ProcessFetched(c.cfg.ListenerBatch)
	summaries = append(summaries, intakeSummary)
	if err != nil {
		return summaries, err
	}
	log.Info("intake done", "attachments", len(attachments), "failed", intakeSummary.Failed)

	orders, extractSummary := c.extract.ExtractBatch(ctx, attachments)
	summaries = append(summaries, extractSummary)
	log.Info("extraction done", "orders", len(orders), "failed", extractSummary.Failed)

	recorded, recordSummary := c.record.RecordBatch(orders, attachments)
	summaries = append(summaries, recordSummary)
	log.Info("recording done", "recorded", len(recorded), "failed", recordSummary.Failed)

	notifySummary := c.notify.NotifyBatch(recorded)
	summaries = append(summaries, notifySummary)
	log.Info("notification done", "sent", notifySummary.Succeeded, "failed", notifySummary.Failed)

	if err := c.db.InsertRun(traceID, "supplier", summaries); err != nil {
		return summaries, err
	}
	return summaries, nil
}

// RunBuyer executes inventory analysis -> validation -> queue processing ->
// document generation -> supplier notification.
func (c *Crew) RunBuyer(ctx context.Context) ([]internal.StageSummary, error) {
	traceID := uuid.NewString()
	log := c.log.With("crew", "buyer", "trace_id", traceID)

	var summaries []internal.StageSummary

	overview, err := c.inventory.Overview()
	if err != nil {
		return summaries, err
	}
	log.Info("inventory overview",
		"items", overview.TotalItems,
		"low_stock", overview.LowStockItems,
		"critical", overview.CriticalItems,
		"health", overview.HealthScore)

	suggestions, invSummary, err := c.inventory.RestockSuggestions()
	summaries = append(summaries, invSummary)
	if err != nil {
		return summaries, err
	}

	requests, valSummary, err := c.validate.ValidateAndEnqueue(suggestions)
	summaries = append(summaries, valSummary)
	if err != nil {
		return summaries, err
	}
	approved := 0
	for _, req := range requests {
		if req.BudgetValidation.Approved {
			approved++
		}
	}
	log.Info("validation done", "requests", len(requests), "approved", approved)

	groups, queueSummary, err := c.queue.PendingGroups()
	summaries = append(summaries, queueSummary)
	if err != nil {
		return summaries, err
	}

	pos, docSummary := c.docs.GenerateBatch(groups, c.cfg.CCRecipients)
	summaries = append(summaries, docSummary)
	log.Info("document generation done", "documents", len(pos), "failed", docSummary.Failed)

	notifySummary := c.supplierNotify.NotifyBatch(pos)
	summaries = append(summaries, notifySummary)
	log.Info("supplier notification done", "sent", notifySummary.Succeeded, "failed", notifySummary.Failed)

	if err := c.db.InsertRun(traceID, "buyer", summaries); err != nil {
		return summaries, err
	}
	return summaries, nil
}

// Fatal reports whether an error should abort the whole crew instead of a
// single item.
func Fatal(err error) bool {
	return errors.Is(err, internal.ErrConfigurationMissing)
}

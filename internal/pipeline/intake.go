package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"poflow/internal"
	"poflow/internal/config"
	"poflow/internal/storage"
	"poflow/internal/util"
)

// candidateExts are the attachment types treated as purchase-order documents.
var candidateExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IntakeService turns fetched raw mail into attachment records for the
// extraction stage. Messages without an order document are marked skipped and
// never re-processed.
type IntakeService struct {
	db             *storage.DB
	rules          config.Rules
	attachmentsDir string
}

func NewIntakeService(db *storage.DB, rules config.Rules, attachmentsDir string) *IntakeService {
	return &IntakeService{db: db, rules: rules, attachmentsDir: attachmentsDir}
}

// ProcessFetched walks emails in status fetched, saves their candidate
// attachments under the attachments dir and emits one AttachmentRecord per
// saved document. An order carried in an HTML body table is saved as an .html
// document so extraction handles it the same way.
func (s *IntakeService) ProcessFetched(batch int) ([]internal.AttachmentRecord, internal.StageSummary, error) {
	summary := internal.StageSummary{Stage: "intake"}

	emails, err := s.db.ListEmailsByStatus("fetched", batch)
	if err != nil {
		return nil, summary, err
	}

	out := make([]internal.AttachmentRecord, 0, len(emails))
	for _, row := range emails {
		records, err := s.processOne(row)
		if err != nil {
			summary.RecordFailure(row.MessageID, err.Error())
			_ = s.db.UpdateEmailStatus(row.ID, "failed")
			continue
		}
		if len(records) == 0 {
			summary.RecordSuccess()
			_ = s.db.UpdateEmailStatus(row.ID, "skipped")
			continue
		}
		summary.RecordSuccess()
		_ = s.db.UpdateEmailStatus(row.ID, "processed")
		out = append(out, records...)
	}

	return out, summary, nil
}

func (s *IntakeService) processOne(row internal.EmailRow) ([]internal.AttachmentRecord, error) {
	raw, err := os.ReadFile(row.RawRef)
	if err != nil {
		return nil, err
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	subject := util.FirstNonEmpty(env.GetHeader("Subject"), row.Subject)
	body := env.Text
	sender := util.FirstNonEmpty(util.ExtractEmail(env.GetHeader("From")), util.ExtractEmail(row.Sender))

	level, _ := s.rules.ClassifyPriority(subject, body)
	hint := util.FirstNonEmpty(util.ExtractPONumber(subject), util.ExtractPONumber(body))

	if err := os.MkdirAll(s.attachmentsDir, 0o755); err != nil {
		return nil, err
	}

	base := internal.AttachmentRecord{
		SenderEmail:  sender,
		EmailSubject: subject,
		EmailBody:    body,
		ReceivedDate: row.ReceivedAt,
		Priority:     internal.PriorityLevel(level),
		PONumberHint: hint,
		MessageHash:  row.Hash,
	}

	var out []internal.AttachmentRecord
	for _, att := range env.Attachments {
		name := util.SanitizeFilename(att.FileName)
		if !candidateExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(s.attachmentsDir, shortHash(row.Hash)+"_"+name)
		if err := os.WriteFile(path, att.Content, 0o644); err != nil {
			return nil, err
		}
		rec := base
		rec.FilePath = path
		out = append(out, rec)
	}

	if len(out) == 0 && htmlHasTable(env.HTML) {
		path := filepath.Join(s.attachmentsDir, shortHash(row.Hash)+"_body.html")
		if err := os.WriteFile(path, []byte(env.HTML), 0o644); err != nil {
			return nil, err
		}
		rec := base
		rec.FilePath = path
		out = append(out, rec)
	}

	return out, nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func htmlHasTable(html string) bool {
	return strings.Contains(strings.ToLower(html), "<table")
}

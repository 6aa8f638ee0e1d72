package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"poflow/internal"
	"poflow/internal/docgen"
	"poflow/internal/storage"
	"poflow/internal/util"
)

// DocGenService renders one PO PDF per supplier group and settles the queue
// entries behind it: completed on success, failed otherwise.
type DocGenService struct {
	db  *storage.DB
	gen *docgen.Generator
	now func() time.Time
}

func NewDocGenService(db *storage.DB, gen *docgen.Generator) *DocGenService {
	return &DocGenService{db: db, gen: gen, now: time.Now}
}

func (s *DocGenService) GenerateBatch(groups []SupplierGroup, ccRecipients []string) ([]internal.GeneratedPO, internal.StageSummary) {
	summary := internal.StageSummary{Stage: "document_generation"}

	out := make([]internal.GeneratedPO, 0, len(groups))
	for _, group := range groups {
		po, err := s.generateOne(group, ccRecipients)
		if err != nil {
			summary.RecordFailure(group.Request.SupplierName, err.Error())
			for _, id := range group.RequestIDs {
				_ = s.db.MarkFailed(id, err.Error())
			}
			continue
		}
		summary.RecordSuccess()
		for _, id := range group.RequestIDs {
			_ = s.db.MarkCompleted(id, "generated "+po.PONumber)
		}
		out = append(out, po)
	}
	return out, summary
}

func (s *DocGenService) generateOne(group SupplierGroup, ccRecipients []string) (internal.GeneratedPO, error) {
	poNumber, err := s.nextPONumber()
	if err != nil {
		return internal.GeneratedPO{}, err
	}

	path, err := s.gen.Render(group.Request, poNumber)
	if err != nil {
		return internal.GeneratedPO{}, err
	}

	total := 0.0
	for _, item := range group.Request.LineItems {
		total += item.EstimatedTotal
	}

	return internal.GeneratedPO{
		SupplierName:        group.Request.SupplierName,
		ContactPerson:       group.Request.SupplierContact.ContactPerson,
		ContactEmail:        group.Request.SupplierContact.Email,
		PONumber:            poNumber,
		PDFFilePath:         path,
		CCRecipients:        ccRecipients,
		DeliveryDate:        group.Request.DeliveryRequirements.DeliveryDate,
		SpecialInstructions: group.Request.DeliveryRequirements.SpecialInstructions,
		TotalValue:          util.Round2(total),
	}, nil
}

// nextPONumber allocates PO-YYYYMMDD-NNNN. The per-day counter lives in the
// metadata table so numbers stay unique across runs.
func (s *DocGenService) nextPONumber() (string, error) {
	date := s.now().UTC().Format("20060102")
	key := "po_seq_" + date

	seq := 0
	if value, err := s.db.GetMetadata(key); err != nil {
		return "", err
	} else if value != nil {
		if parsed, err := strconv.Atoi(*value); err == nil {
			seq = parsed
		}
	}

	seq++
	if err := s.db.SetMetadata(key, strconv.Itoa(seq)); err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%s-%04d", date, seq), nil
}

package service

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/google/uuid"
)

type invoiceService struct {
	invoices repository.InvoiceRepo
	lines    repository.LineRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewInvoiceService(invoices repository.InvoiceRepo, lines repository.LineRepo, uow db.UnitOfWork, observers ...UseCaseObserver) InvoiceService {
	return &invoiceService{invoices: invoices, lines: lines, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

// CreateFromJob copies the job's current lines into a new draft invoice. The
// copies are independent of the job afterwards.
func (s *invoiceService) CreateFromJob(ctx context.Context, jobID string) (inv *domain.Invoice, err error) {
	fields := map[string]any{"job": jobID}
	defer observe(ctx, s.observer, "invoice-from-job", time.Now().UTC(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		job, err := repository.NewSQLiteJobRepo(tx).GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		txLines := repository.NewSQLiteLineRepo(tx)
		source, err := txLines.ListByParent(ctx, domain.ParentJob, jobID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		jid := job.ID
		invoice := &domain.Invoice{
			ID:         uuid.New().String(),
			LocationID: job.LocationID,
			JobID:      &jid,
			Status:     domain.InvoiceDraft,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repository.NewSQLiteInvoiceRepo(tx).Create(ctx, invoice); err != nil {
			return err
		}
		for _, l := range source {
			copied := *l
			copied.ID = uuid.New().String()
			copied.ParentKind = domain.ParentInvoice
			copied.ParentID = invoice.ID
			copied.CreatedAt = now
			copied.UpdatedAt = now
			if err := txLines.Create(ctx, &copied); err != nil {
				return err
			}
			invoice.Lines = append(invoice.Lines, copied)
		}
		inv = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["invoice"] = inv.ID
	fields["line_count"] = len(inv.Lines)
	return inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines.ListByParent(ctx, domain.ParentInvoice, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = derefLines(lines)
	return inv, nil
}

func (s *invoiceService) List(ctx context.Context) ([]*domain.Invoice, error) {
	return s.invoices.List(ctx)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/google/uuid"
)

type lineService struct {
	lines    repository.LineRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewLineService(lines repository.LineRepo, uow db.UnitOfWork, observers ...UseCaseObserver) LineService {
	return &lineService{lines: lines, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *lineService) List(ctx context.Context, kind domain.ParentKind, parentID string) ([]domain.LineItem, error) {
	lines, err := s.lines.ListByParent(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}
	return derefLines(lines), nil
}

func (s *lineService) Create(ctx context.Context, kind domain.ParentKind, parentID string, in domain.LineInput) (line domain.LineItem, err error) {
	fields := map[string]any{"parent_kind": string(kind), "parent": parentID}
	defer observe(ctx, s.observer, "create-line", time.Now().UTC(), fields, &err)

	if err = in.Validate(); err != nil {
		return domain.LineItem{}, err
	}
	now := time.Now().UTC()
	l := domain.LineItem{
		ID:             uuid.New().String(),
		ParentKind:     kind,
		ParentID:       parentID,
		CatalogItemID:  in.CatalogItemID,
		Description:    in.Description,
		Notes:          in.Notes,
		EquipmentLabel: in.EquipmentLabel,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		UnitPrice:      in.UnitPrice,
		Source:         in.Source,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := requireParent(ctx, tx, kind, parentID); err != nil {
			return err
		}
		return repository.NewSQLiteLineRepo(tx).Create(ctx, &l)
	})
	if err != nil {
		return domain.LineItem{}, err
	}
	fields["line"] = l.ID
	return l, nil
}

func (s *lineService) Update(ctx context.Context, kind domain.ParentKind, parentID, lineID string, in domain.LineInput) (line domain.LineItem, err error) {
	fields := map[string]any{"parent_kind": string(kind), "parent": parentID, "line": lineID}
	defer observe(ctx, s.observer, "update-line", time.Now().UTC(), fields, &err)

	if err = in.Validate(); err != nil {
		return domain.LineItem{}, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txLines := repository.NewSQLiteLineRepo(tx)
		l, err := txLines.GetByID(ctx, lineID)
		if err != nil {
			return err
		}
		if l.ParentKind != kind || l.ParentID != parentID {
			return fmt.Errorf("line %s on %s %s: %w", lineID, kind, parentID, repository.ErrNotFound)
		}
		l.CatalogItemID = in.CatalogItemID
		l.Description = in.Description
		l.Notes = in.Notes
		l.EquipmentLabel = in.EquipmentLabel
		l.Quantity = in.Quantity
		l.UnitCost = in.UnitCost
		l.UnitPrice = in.UnitPrice
		l.Source = in.Source
		l.UpdatedAt = time.Now().UTC()
		if err := txLines.Update(ctx, l); err != nil {
			return err
		}
		line = *l
		return nil
	})
	if err != nil {
		return domain.LineItem{}, err
	}
	return line, nil
}

func (s *lineService) Delete(ctx context.Context, kind domain.ParentKind, parentID, lineID string) (err error) {
	fields := map[string]any{"parent_kind": string(kind), "parent": parentID, "line": lineID}
	defer observe(ctx, s.observer, "delete-line", time.Now().UTC(), fields, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteLineRepo(tx).Delete(ctx, kind, parentID, lineID)
	})
}

func (s *lineService) SetOrder(ctx context.Context, kind domain.ParentKind, parentID string, order []domain.LineOrder) (err error) {
	fields := map[string]any{"parent_kind": string(kind), "parent": parentID, "line_count": len(order)}
	defer observe(ctx, s.observer, "set-line-order", time.Now().UTC(), fields, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteLineRepo(tx).SetOrder(ctx, kind, parentID, order)
	})
}

func (s *lineService) Totals(ctx context.Context, kind domain.ParentKind, parentID string) (domain.Totals, error) {
	lines, err := s.List(ctx, kind, parentID)
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.ComputeTotals(lines), nil
}

func requireParent(ctx context.Context, tx db.DBTX, kind domain.ParentKind, parentID string) error {
	switch kind {
	case domain.ParentJob:
		_, err := repository.NewSQLiteJobRepo(tx).GetByID(ctx, parentID)
		return err
	case domain.ParentInvoice:
		_, err := repository.NewSQLiteInvoiceRepo(tx).GetByID(ctx, parentID)
		return err
	}
	return &domain.ValidationError{Field: "parent_kind", Message: fmt.Sprintf("unknown parent kind %q", kind)}
}

// LineStore binds a LineService to one parent kind for a reconcile session.
type LineStore struct {
	lines LineService
	kind  domain.ParentKind
}

var _ reconcile.Store = (*LineStore)(nil)

func NewLineStore(lines LineService, kind domain.ParentKind) *LineStore {
	return &LineStore{lines: lines, kind: kind}
}

func (s *LineStore) CreateLine(ctx context.Context, parentID string, in domain.LineInput) (domain.LineItem, error) {
	return s.lines.Create(ctx, s.kind, parentID, in)
}

func (s *LineStore) UpdateLine(ctx context.Context, parentID, lineID string, in domain.LineInput) (domain.LineItem, error) {
	return s.lines.Update(ctx, s.kind, parentID, lineID, in)
}

func (s *LineStore) DeleteLine(ctx context.Context, parentID, lineID string) error {
	return s.lines.Delete(ctx, s.kind, parentID, lineID)
}

func (s *LineStore) SetLineOrder(ctx context.Context, parentID string, order []domain.LineOrder) error {
	return s.lines.SetOrder(ctx, s.kind, parentID, order)
}

func (s *LineStore) ListLines(ctx context.Context, parentID string) ([]domain.LineItem, error) {
	return s.lines.List(ctx, s.kind, parentID)
}

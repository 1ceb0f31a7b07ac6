package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/google/uuid"
)

// Operation names accepted by FlakyLineStore.FailNext and Hold.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpOrder  = "order"
	OpList   = "list"
)

// FlakyLineStore is an in-memory line store for a single parent with
// one-shot failure injection and the ability to park a call mid-flight.
// It has the method set of reconcile.Store.
type FlakyLineStore struct {
	mu     sync.Mutex
	lines  []domain.LineItem
	fail   map[string]error
	holds  map[string]*Hold
	calls  map[string]int
	orders [][]domain.LineOrder
}

// Hold parks the next call of an operation until Release is called.
type Hold struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *Hold) Release() {
	h.once.Do(func() { close(h.release) })
}

func NewFlakyLineStore(seed ...domain.LineItem) *FlakyLineStore {
	s := &FlakyLineStore{
		fail:  map[string]error{},
		holds: map[string]*Hold{},
		calls: map[string]int{},
	}
	for i, l := range seed {
		l.SortOrder = i
		s.lines = append(s.lines, l)
	}
	return s
}

// FailNext makes the next call of op return err.
func (s *FlakyLineStore) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

// HoldNext parks the next call of op after it is counted.
func (s *FlakyLineStore) HoldNext(op string) *Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &Hold{Entered: make(chan struct{}), release: make(chan struct{})}
	s.holds[op] = h
	return h
}

func (s *FlakyLineStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Orders returns every set-order payload received, in call order.
func (s *FlakyLineStore) Orders() [][]domain.LineOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]domain.LineOrder, len(s.orders))
	copy(out, s.orders)
	return out
}

// Snapshot returns the stored lines in order.
func (s *FlakyLineStore) Snapshot() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LineItem(nil), s.lines...)
}

func (s *FlakyLineStore) enter(ctx context.Context, op string) error {
	s.mu.Lock()
	s.calls[op]++
	h := s.holds[op]
	delete(s.holds, op)
	err := s.fail[op]
	delete(s.fail, op)
	s.mu.Unlock()

	if h != nil {
		close(h.Entered)
		select {
		case <-h.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *FlakyLineStore) CreateLine(ctx context.Context, parentID string, in domain.LineInput) (domain.LineItem, error) {
	if err := s.enter(ctx, OpCreate); err != nil {
		return domain.LineItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	l := domain.LineItem{
		ID:             uuid.New().String(),
		ParentKind:     domain.ParentJob,
		ParentID:       parentID,
		CatalogItemID:  in.CatalogItemID,
		Description:    in.Description,
		Notes:          in.Notes,
		EquipmentLabel: in.EquipmentLabel,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		UnitPrice:      in.UnitPrice,
		SortOrder:      len(s.lines),
		Source:         in.Source,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.lines = append(s.lines, l)
	return l, nil
}

func (s *FlakyLineStore) UpdateLine(ctx context.Context, parentID, lineID string, in domain.LineInput) (domain.LineItem, error) {
	if err := s.enter(ctx, OpUpdate); err != nil {
		return domain.LineItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID != lineID {
			continue
		}
		l := &s.lines[i]
		l.CatalogItemID = in.CatalogItemID
		l.Description = in.Description
		l.Notes = in.Notes
		l.EquipmentLabel = in.EquipmentLabel
		l.Quantity = in.Quantity
		l.UnitCost = in.UnitCost
		l.UnitPrice = in.UnitPrice
		l.Source = in.Source
		l.UpdatedAt = time.Now().UTC()
		return *l, nil
	}
	return domain.LineItem{}, fmt.Errorf("line %s not found", lineID)
}

func (s *FlakyLineStore) DeleteLine(ctx context.Context, parentID, lineID string) error {
	if err := s.enter(ctx, OpDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			for j := range s.lines {
				s.lines[j].SortOrder = j
			}
			return nil
		}
	}
	return fmt.Errorf("line %s not found", lineID)
}

func (s *FlakyLineStore) SetLineOrder(ctx context.Context, parentID string, order []domain.LineOrder) error {
	if err := s.enter(ctx, OpOrder); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, append([]domain.LineOrder(nil), order...))
	if len(order) != len(s.lines) {
		return fmt.Errorf("expected %d lines, got %d", len(s.lines), len(order))
	}
	pos := make(map[string]int, len(order))
	for _, o := range order {
		pos[o.ID] = o.SortOrder
	}
	reordered := make([]domain.LineItem, len(s.lines))
	for _, l := range s.lines {
		p, ok := pos[l.ID]
		if !ok || p < 0 || p >= len(reordered) {
			return fmt.Errorf("line %s missing from order", l.ID)
		}
		l.SortOrder = p
		reordered[p] = l
	}
	s.lines = reordered
	return nil
}

func (s *FlakyLineStore) ListLines(ctx context.Context, parentID string) ([]domain.LineItem, error) {
	if err := s.enter(ctx, OpList); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

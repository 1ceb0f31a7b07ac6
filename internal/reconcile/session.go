// Package reconcile keeps an editable, reorderable list of line items in step
// with its persisted copy.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrRowBusy is returned for any mutation of a row with a request in flight.
	ErrRowBusy = errors.New("row is saving")
	// ErrUnknownRow is returned for keys the session does not hold.
	ErrUnknownRow = errors.New("unknown row")
	// ErrNoCatalog is returned by catalog operations on a session built
	// without a catalog.
	ErrNoCatalog = errors.New("no catalog configured")
)

// Store persists the lines of one parent kind.
type Store interface {
	CreateLine(ctx context.Context, parentID string, in domain.LineInput) (domain.LineItem, error)
	UpdateLine(ctx context.Context, parentID, lineID string, in domain.LineInput) (domain.LineItem, error)
	DeleteLine(ctx context.Context, parentID, lineID string) error
	SetLineOrder(ctx context.Context, parentID string, order []domain.LineOrder) error
	ListLines(ctx context.Context, parentID string) ([]domain.LineItem, error)
}

// Catalog resolves and creates catalog items for binding.
type Catalog interface {
	Resolve(ctx context.Context, id string) (domain.CatalogItem, bool, error)
	QuickAdd(ctx context.Context, in domain.NewCatalogItem) (domain.CatalogItem, error)
}

// ReorderPolicy decides what happens to the local order when persisting a
// reorder fails.
type ReorderPolicy int

const (
	// ReorderReportOnly keeps the local order and reports the failure.
	ReorderReportOnly ReorderPolicy = iota
	// ReorderRevert restores the previous order and reports the failure.
	ReorderRevert
)

// ParseReorderPolicy maps "report" and "revert" to a policy.
func ParseReorderPolicy(s string) (ReorderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "report":
		return ReorderReportOnly, nil
	case "revert":
		return ReorderRevert, nil
	}
	return ReorderReportOnly, fmt.Errorf("unknown reorder policy %q", s)
}

// Session is the editing state of one parent's lines. It is safe for
// concurrent use; the lock is never held across store or catalog calls.
type Session struct {
	parentID string
	store    Store
	catalog  Catalog
	notifier Notifier
	policy   ReorderPolicy

	mu    sync.Mutex
	rows  []*row
	focus string
	// editing is the key of the open row, the only row that takes field
	// changes without first being opened.
	editing string
	// version counts committed local mutations; a fetch that started
	// before a newer mutation is stale and is not merged.
	version uint64
}

type Option func(*Session)

func WithCatalog(c Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func WithReorderPolicy(p ReorderPolicy) Option {
	return func(s *Session) { s.policy = p }
}

func NewSession(parentID string, store Store, opts ...Option) *Session {
	s := &Session{
		parentID: parentID,
		store:    store,
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ParentID() string { return s.parentID }

// Load fetches the persisted lines and merges them into the session.
// Unsaved drafts, edits and in-flight rows are kept.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	v := s.version
	s.mu.Unlock()

	lines, err := s.store.ListLines(ctx, s.parentID)
	if err != nil {
		return fmt.Errorf("loading lines: %w", err)
	}
	s.mu.Lock()
	if s.version == v {
		s.merge(lines)
	}
	s.mu.Unlock()
	return nil
}

// Rows returns views of every row in display order.
func (s *Session) Rows() []RowView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RowView, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.view(s.focus, s.editing, i)
	}
	return out
}

// Row returns the view of one row.
func (s *Session) Row(key string) (RowView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(key)
	if i < 0 {
		return RowView{}, false
	}
	return s.rows[i].view(s.focus, s.editing, i), true
}

// Focused returns the key of the focused row, or "".
func (s *Session) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Editing returns the key of the open row, or "".
func (s *Session) Editing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// Focus moves focus to key without changing any row state.
func (s *Session) Focus(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(key) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, key)
	}
	s.focus = key
	return nil
}

// Totals aggregates the current draft values of every row, unsaved drafts
// included.
func (s *Session) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]domain.LineItem, len(s.rows))
	for i, r := range s.rows {
		in := r.draft.Input()
		lines[i] = domain.LineItem{Quantity: in.Quantity, UnitCost: in.UnitCost, UnitPrice: in.UnitPrice}
	}
	return domain.ComputeTotals(lines)
}

// AddLine appends a blank draft row, opens and focuses it and returns its
// key.
func (s *Session) AddLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &row{key: "draft-" + uuid.New().String(), state: StateNew, draft: newDraft()}
	s.rows = append(s.rows, r)
	s.open(r)
	s.focus = r.key
	return r.key
}

// BeginEdit opens the row and focuses it. A committed row enters Editing.
// The previously open row closes: an editing row reverts to its snapshot,
// an unsaved draft keeps its values until it is opened again.
func (s *Session) BeginEdit(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.mutable(key)
	if err != nil {
		return err
	}
	s.open(r)
	s.focus = key
	return nil
}

// Change opens the row like BeginEdit, then applies fn to its draft.
func (s *Session) Change(key string, fn func(*Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.mutable(key)
	if err != nil {
		return err
	}
	s.open(r)
	fn(&r.draft)
	s.focus = key
	return nil
}

// Editable field names accepted by SetField.
const (
	FieldDescription = "description"
	FieldNotes       = "notes"
	FieldEquipment   = "equipment"
	FieldQuantity    = "quantity"
	FieldUnitCost    = "unit_cost"
	FieldUnitPrice   = "unit_price"
)

// SetField parses text into the named field. Blank money clears the value
// back to unset.
func (s *Session) SetField(key, field, text string) error {
	var apply func(*Draft)
	switch field {
	case FieldDescription:
		apply = func(d *Draft) { d.setDescription(text) }
	case FieldNotes:
		apply = func(d *Draft) { d.Notes = text }
	case FieldEquipment:
		apply = func(d *Draft) { d.EquipmentLabel = text }
	case FieldQuantity:
		q, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return &domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("%q is not a number", text)}
		}
		apply = func(d *Draft) { d.Quantity = q }
	case FieldUnitCost, FieldUnitPrice:
		v, err := parseMoney(field, text)
		if err != nil {
			return err
		}
		if field == FieldUnitCost {
			apply = func(d *Draft) { d.setUnitCost(v) }
		} else {
			apply = func(d *Draft) { d.setUnitPrice(v) }
		}
	default:
		return &domain.ValidationError{Field: field, Message: "not an editable field"}
	}
	return s.Change(key, apply)
}

func parseMoney(field, text string) (decimal.NullDecimal, error) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "$"))
	if text == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}, &domain.ValidationError{Field: field, Message: fmt.Sprintf("%q is not an amount", text)}
	}
	return decimal.NewNullDecimal(v), nil
}

// SelectCatalogItem binds the catalog item to the row. Description and
// prices the operator typed are kept; blanks and values from an earlier
// binding take the item's values.
func (s *Session) SelectCatalogItem(ctx context.Context, key, itemID string) error {
	if s.catalog == nil {
		return ErrNoCatalog
	}
	if err := s.checkMutable(key); err != nil {
		return err
	}
	item, ok, err := s.catalog.Resolve(ctx, itemID)
	if err != nil {
		s.notifier.Notify(NotifyError, fmt.Sprintf("catalog lookup failed: %v", err))
		return fmt.Errorf("resolving catalog item: %w", err)
	}
	if !ok {
		return &domain.ValidationError{Field: "catalog_item_id", Message: fmt.Sprintf("catalog item %s not found", itemID)}
	}
	return s.Change(key, func(d *Draft) { d.bind(item) })
}

// QuickAddCatalogItem creates a catalog item and binds it to the row.
func (s *Session) QuickAddCatalogItem(ctx context.Context, key string, in domain.NewCatalogItem) (domain.CatalogItem, error) {
	if s.catalog == nil {
		return domain.CatalogItem{}, ErrNoCatalog
	}
	if err := s.checkMutable(key); err != nil {
		return domain.CatalogItem{}, err
	}
	item, err := s.catalog.QuickAdd(ctx, in)
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			s.notifier.Notify(NotifyError, fmt.Sprintf("adding catalog item failed: %v", err))
		}
		return domain.CatalogItem{}, err
	}
	s.notifier.Notify(NotifyInfo, fmt.Sprintf("added %q to the catalog", item.Name))
	if err := s.Change(key, func(d *Draft) { d.bind(item) }); err != nil {
		return item, err
	}
	return item, nil
}

// Save validates the row and persists it: New rows are created, Editing
// rows updated. On success the row commits with server values (a new row's
// key becomes its line ID) and the session re-fetches. On failure the row
// returns to its previous state with the error recorded, and is open again
// unless another row was opened while the request was in flight.
func (s *Session) Save(ctx context.Context, key string) (RowView, error) {
	s.mu.Lock()
	r, err := s.mutable(key)
	if err != nil {
		s.mu.Unlock()
		return RowView{}, err
	}
	if r.state == StateCommitted {
		v := r.view(s.focus, s.editing, s.indexOf(key))
		s.mu.Unlock()
		return v, nil
	}
	in := r.draft.Input()
	if err := in.Validate(); err != nil {
		r.err = err
		s.mu.Unlock()
		return RowView{}, err
	}
	creating := r.state == StateNew
	lineID := r.line.ID
	wasOpen := s.editing == r.key
	s.close(r)
	r.beginSaving()
	s.mu.Unlock()

	var saved domain.LineItem
	op := "update"
	if creating {
		op = "create"
		saved, err = s.store.CreateLine(ctx, s.parentID, in)
	} else {
		saved, err = s.store.UpdateLine(ctx, s.parentID, lineID, in)
	}

	s.mu.Lock()
	if err != nil {
		perr := &domain.PersistenceError{Op: op, LineID: lineID, Err: err}
		s.failRequest(r, perr, wasOpen)
		s.mu.Unlock()
		s.notifier.Notify(NotifyError, perr.Error())
		return RowView{}, perr
	}
	focused := s.focus == r.key
	if i := s.indexOf(saved.ID); i >= 0 && s.rows[i] != r {
		// A refresh already brought the new line in; drop the draft.
		s.remove(r)
		r = s.rows[s.indexOf(saved.ID)]
	}
	r.commit(saved)
	s.version++
	if focused {
		s.focus = r.key
	}
	s.normalize()
	newKey := r.key
	s.mu.Unlock()

	s.refresh(ctx)
	v, _ := s.Row(newKey)
	return v, nil
}

// Cancel discards local changes: new rows are removed and editing rows
// revert to their snapshot.
func (s *Session) Cancel(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.mutable(key)
	if err != nil {
		return err
	}
	switch r.state {
	case StateNew:
		s.remove(r)
	case StateEditing:
		r.revert()
		s.close(r)
	}
	return nil
}

// Delete removes a row. New rows vanish locally; persisted rows are deleted
// in the store first and restored if that fails.
func (s *Session) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	r, err := s.mutable(key)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !r.persisted {
		s.remove(r)
		s.mu.Unlock()
		return nil
	}
	lineID := r.line.ID
	wasOpen := s.editing == r.key
	s.close(r)
	r.beginSaving()
	s.mu.Unlock()

	if err := s.store.DeleteLine(ctx, s.parentID, lineID); err != nil {
		perr := &domain.PersistenceError{Op: "delete", LineID: lineID, Err: err}
		s.mu.Lock()
		s.failRequest(r, perr, wasOpen)
		s.mu.Unlock()
		s.notifier.Notify(NotifyError, perr.Error())
		return perr
	}

	s.mu.Lock()
	s.remove(r)
	s.version++
	s.mu.Unlock()
	s.refresh(ctx)
	return nil
}

// Reorder applies a new order of the persisted rows. keys must list every
// persisted row exactly once; new rows stay after them and are not sent.
// The local order changes first, then one set-order call is made.
func (s *Session) Reorder(ctx context.Context, keys []string) error {
	s.mu.Lock()
	persisted, drafts := s.partition()
	if err := checkPermutation(persisted, keys); err != nil {
		s.mu.Unlock()
		return err
	}
	unchanged := true
	for i, r := range persisted {
		if r.key != keys[i] {
			unchanged = false
			break
		}
	}
	if unchanged {
		s.mu.Unlock()
		return nil
	}

	previous := make([]string, len(persisted))
	for i, r := range persisted {
		previous[i] = r.key
	}
	s.applyOrder(keys, drafts)
	s.version++
	order := make([]domain.LineOrder, len(keys))
	for i, k := range keys {
		order[i] = domain.LineOrder{ID: k, SortOrder: i}
	}
	s.mu.Unlock()

	if err := s.store.SetLineOrder(ctx, s.parentID, order); err != nil {
		perr := &domain.PersistenceError{Op: "reorder", Err: err}
		if s.policy == ReorderRevert {
			s.mu.Lock()
			_, drafts := s.partition()
			if checkPermutation(s.persistedRows(), previous) == nil {
				s.applyOrder(previous, drafts)
			}
			s.mu.Unlock()
		}
		s.notifier.Notify(NotifyError, perr.Error())
		return perr
	}
	s.refresh(ctx)
	return nil
}

// Move places one persisted row at index among the persisted rows.
func (s *Session) Move(ctx context.Context, key string, index int) error {
	s.mu.Lock()
	persisted := s.persistedRows()
	keys := make([]string, 0, len(persisted))
	found := false
	for _, r := range persisted {
		if r.key == key {
			found = true
			continue
		}
		keys = append(keys, r.key)
	}
	s.mu.Unlock()
	if !found {
		if _, ok := s.Row(key); ok {
			return &domain.ValidationError{Field: "order", Message: "unsaved lines cannot be moved"}
		}
		return fmt.Errorf("%w: %s", ErrUnknownRow, key)
	}
	if index < 0 {
		index = 0
	}
	if index > len(keys) {
		index = len(keys)
	}
	keys = append(keys[:index], append([]string{key}, keys[index:]...)...)
	return s.Reorder(ctx, keys)
}

// refresh re-fetches after a successful mutation. Failures are reported but
// do not undo the mutation.
func (s *Session) refresh(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.notifier.Notify(NotifyError, err.Error())
	}
}

// merge rebuilds the row list from server lines. Must hold mu.
func (s *Session) merge(lines []domain.LineItem) {
	existing := make(map[string]*row, len(s.rows))
	for _, r := range s.rows {
		if r.persisted {
			existing[r.key] = r
		}
	}
	seen := make(map[string]bool, len(lines))
	merged := make([]*row, 0, len(lines)+len(s.rows))
	for _, l := range lines {
		seen[l.ID] = true
		r, ok := existing[l.ID]
		if !ok {
			merged = append(merged, committedRow(l))
			continue
		}
		if r.state == StateCommitted {
			r.commit(l)
		} else {
			r.line.SortOrder = l.SortOrder
		}
		merged = append(merged, r)
	}
	for _, r := range s.rows {
		switch {
		case !r.persisted:
			merged = append(merged, r)
		case !seen[r.key] && r.state == StateSaving:
			// In flight against a line the server no longer lists; its own
			// completion decides.
			merged = append(merged, r)
		}
	}
	s.rows = merged
	s.normalize()
	if s.focus != "" && s.indexOf(s.focus) < 0 {
		s.focus = ""
	}
	if s.editing != "" && s.indexOf(s.editing) < 0 {
		s.editing = ""
	}
}

// mutable returns the row for key if it accepts changes. Must hold mu.
func (s *Session) mutable(key string) (*row, error) {
	i := s.indexOf(key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRow, key)
	}
	r := s.rows[i]
	if r.state == StateSaving {
		return nil, fmt.Errorf("%w: %s", ErrRowBusy, key)
	}
	return r, nil
}

func (s *Session) checkMutable(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.mutable(key)
	return err
}

// open makes r the open row. The row it replaces reverts if it is editing;
// an unsaved draft stays New with its values. Must hold mu.
func (s *Session) open(r *row) {
	if s.editing != r.key {
		if i := s.indexOf(s.editing); i >= 0 {
			s.rows[i].revert()
		}
	}
	if r.state == StateCommitted {
		r.snapshot = r.draft
		r.state = StateEditing
	}
	s.editing = r.key
}

// close releases the edit if r holds it. Must hold mu.
func (s *Session) close(r *row) {
	if s.editing == r.key {
		s.editing = ""
	}
}

// failRequest returns a failed request's row to its previous state. A row
// that was open takes the edit back only if no other row was opened
// meanwhile; otherwise both keep their drafts and the next BeginEdit
// decides. Must hold mu.
func (s *Session) failRequest(r *row, err error, wasOpen bool) {
	r.fail(err)
	if wasOpen && s.editing == "" {
		s.editing = r.key
	}
}

func (s *Session) indexOf(key string) int {
	for i, r := range s.rows {
		if r.key == key {
			return i
		}
	}
	return -1
}

func (s *Session) remove(target *row) {
	for i, r := range s.rows {
		if r == target {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			break
		}
	}
	if s.focus == target.key {
		s.focus = ""
	}
	s.close(target)
}

// partition splits rows into persisted and unsaved, keeping order.
func (s *Session) partition() (persisted, drafts []*row) {
	for _, r := range s.rows {
		if r.persisted {
			persisted = append(persisted, r)
		} else {
			drafts = append(drafts, r)
		}
	}
	return persisted, drafts
}

func (s *Session) persistedRows() []*row {
	p, _ := s.partition()
	return p
}

// normalize keeps persisted rows ahead of unsaved ones and their sort
// orders dense.
func (s *Session) normalize() {
	persisted, drafts := s.partition()
	s.rows = append(persisted, drafts...)
	for i, r := range persisted {
		r.line.SortOrder = i
	}
}

func (s *Session) applyOrder(keys []string, drafts []*row) {
	byKey := make(map[string]*row, len(keys))
	for _, r := range s.rows {
		byKey[r.key] = r
	}
	rows := make([]*row, 0, len(s.rows))
	for i, k := range keys {
		r := byKey[k]
		r.line.SortOrder = i
		rows = append(rows, r)
	}
	s.rows = append(rows, drafts...)
}

func checkPermutation(persisted []*row, keys []string) error {
	if len(keys) != len(persisted) {
		return &domain.ValidationError{Field: "order",
			Message: fmt.Sprintf("expected %d saved lines, got %d", len(persisted), len(keys))}
	}
	want := make(map[string]bool, len(persisted))
	for _, r := range persisted {
		want[r.key] = true
	}
	for _, k := range keys {
		if !want[k] {
			return &domain.ValidationError{Field: "order", Message: fmt.Sprintf("%s is not a saved line or is listed twice", k)}
		}
		delete(want, k)
	}
	return nil
}

package reconcile

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/shopspring/decimal"
)

// RowState is where a row sits in the edit lifecycle.
type RowState int

const (
	// StateCommitted rows mirror the server.
	StateCommitted RowState = iota
	// StateEditing rows carry local changes over a snapshot of their
	// committed values. Only the open row is editing, except rows whose
	// save failed after another row was opened.
	StateEditing
	// StateNew rows exist only locally until their first save.
	StateNew
	// StateSaving rows have a request in flight and reject every mutation.
	StateSaving
)

func (s RowState) String() string {
	switch s {
	case StateCommitted:
		return "committed"
	case StateEditing:
		return "editing"
	case StateNew:
		return "new"
	case StateSaving:
		return "saving"
	}
	return fmt.Sprintf("RowState(%d)", int(s))
}

// Draft holds the editable values of a row. Null prices are blanks the
// operator has not filled in yet; they count as zero in totals. Catalog
// binding fills blanks and replaces values an earlier binding filled, never
// values the operator typed.
type Draft struct {
	CatalogItemID  string
	Description    string
	Notes          string
	EquipmentLabel string
	Quantity       decimal.Decimal
	UnitCost       decimal.NullDecimal
	UnitPrice      decimal.NullDecimal
	Source         domain.LineSource

	// Set while the field still holds the bound item's value.
	descFromCatalog  bool
	costFromCatalog  bool
	priceFromCatalog bool
}

func newDraft() Draft {
	return Draft{Quantity: decimal.NewFromInt(1), Source: domain.SourceManual}
}

func draftFromLine(l domain.LineItem) Draft {
	return Draft{
		CatalogItemID:  domain.StrFromPtr(l.CatalogItemID),
		Description:    l.Description,
		Notes:          l.Notes,
		EquipmentLabel: l.EquipmentLabel,
		Quantity:       l.Quantity,
		UnitCost:       decimal.NewNullDecimal(l.UnitCost),
		UnitPrice:      decimal.NewNullDecimal(l.UnitPrice),
		Source:         l.Source,
	}
}

// Input converts the draft into a persistence payload.
func (d Draft) Input() domain.LineInput {
	return domain.LineInput{
		CatalogItemID:  domain.OptionalStr(d.CatalogItemID),
		Description:    strings.TrimSpace(d.Description),
		Notes:          d.Notes,
		EquipmentLabel: d.EquipmentLabel,
		Quantity:       d.Quantity,
		UnitCost:       domain.CoalesceDecimal(d.UnitCost),
		UnitPrice:      domain.CoalesceDecimal(d.UnitPrice),
		Source:         d.Source,
	}
}

// LineTotal is quantity * unit price, with a blank price as zero.
func (d Draft) LineTotal() decimal.Decimal {
	return d.Quantity.Mul(domain.CoalesceDecimal(d.UnitPrice))
}

// Equal compares drafts by value; decimals compare numerically.
func (d Draft) Equal(o Draft) bool {
	return d.CatalogItemID == o.CatalogItemID &&
		d.Description == o.Description &&
		d.Notes == o.Notes &&
		d.EquipmentLabel == o.EquipmentLabel &&
		d.Quantity.Equal(o.Quantity) &&
		nullEqual(d.UnitCost, o.UnitCost) &&
		nullEqual(d.UnitPrice, o.UnitPrice) &&
		d.Source == o.Source
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// bind applies a catalog item to the draft. Blank fields and fields filled
// by a previous binding take the item's values; typed values are kept.
func (d *Draft) bind(item domain.CatalogItem) {
	d.CatalogItemID = item.ID
	if d.descFromCatalog || strings.TrimSpace(d.Description) == "" {
		d.Description = item.Name
		d.descFromCatalog = true
	}
	if d.costFromCatalog || !d.UnitCost.Valid {
		d.UnitCost = decimal.NewNullDecimal(item.Cost)
		d.costFromCatalog = true
	}
	if d.priceFromCatalog || !d.UnitPrice.Valid {
		d.UnitPrice = decimal.NewNullDecimal(item.UnitPrice)
		d.priceFromCatalog = true
	}
	if d.Source == domain.SourceManual || d.Source == "" {
		d.Source = domain.SourceCatalog
	}
}

func (d *Draft) setDescription(text string) {
	if d.Description != text {
		d.Description = text
		d.descFromCatalog = false
	}
}

func (d *Draft) setUnitCost(v decimal.NullDecimal) {
	if !nullEqual(d.UnitCost, v) {
		d.UnitCost = v
		d.costFromCatalog = false
	}
}

func (d *Draft) setUnitPrice(v decimal.NullDecimal) {
	if !nullEqual(d.UnitPrice, v) {
		d.UnitPrice = v
		d.priceFromCatalog = false
	}
}

// row is the session's internal record. line holds the last server values
// and is zero for rows that were never persisted.
type row struct {
	key       string
	line      domain.LineItem
	persisted bool
	state     RowState
	draft     Draft
	snapshot  Draft
	// prior is the state to return to when a request fails.
	prior RowState
	err   error
}

func committedRow(l domain.LineItem) *row {
	return &row{key: l.ID, line: l, persisted: true, state: StateCommitted, draft: draftFromLine(l)}
}

// beginSaving moves the row into Saving and remembers where it came from.
func (r *row) beginSaving() {
	r.prior = r.state
	r.state = StateSaving
	r.err = nil
}

// fail returns the row to its pre-request state with err recorded.
func (r *row) fail(err error) {
	r.state = r.prior
	r.err = err
}

// commit adopts server values.
func (r *row) commit(l domain.LineItem) {
	r.key = l.ID
	r.line = l
	r.persisted = true
	r.state = StateCommitted
	r.draft = draftFromLine(l)
	r.snapshot = Draft{}
	r.err = nil
}

// revert discards local edits of an editing row.
func (r *row) revert() {
	if r.state != StateEditing {
		return
	}
	r.draft = r.snapshot
	r.snapshot = Draft{}
	r.state = StateCommitted
	r.err = nil
}

func (r *row) dirty() bool {
	switch r.state {
	case StateNew:
		return true
	case StateEditing:
		return !r.draft.Equal(r.snapshot)
	case StateSaving:
		switch r.prior {
		case StateNew:
			return true
		case StateEditing:
			return !r.draft.Equal(r.snapshot)
		}
	}
	return false
}

// RowView is a read-only copy of a row for rendering. Open marks the one row
// holding the session's edit.
type RowView struct {
	Key       string
	LineID    string
	State     RowState
	Draft     Draft
	Focused   bool
	Open      bool
	Dirty     bool
	Err       error
	LineTotal decimal.Decimal
	SortOrder int
}

func (r *row) view(focus, open string, pos int) RowView {
	v := RowView{
		Key:       r.key,
		State:     r.state,
		Draft:     r.draft,
		Focused:   r.key == focus,
		Open:      open != "" && r.key == open,
		Dirty:     r.dirty(),
		Err:       r.err,
		LineTotal: r.draft.LineTotal(),
		SortOrder: pos,
	}
	if r.persisted {
		v.LineID = r.line.ID
	}
	return v
}

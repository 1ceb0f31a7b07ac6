package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
)

// SQLiteLineRepo persists line items for every parent kind in one table.
// Multi-statement operations (Delete, SetOrder) should run inside a
// UnitOfWork so the compaction is atomic.
type SQLiteLineRepo struct {
	db db.DBTX
}

func NewSQLiteLineRepo(conn db.DBTX) *SQLiteLineRepo {
	return &SQLiteLineRepo{db: conn}
}

const lineColumns = `id, parent_kind, parent_id, catalog_item_id, description, notes, equipment_label,
	quantity, unit_cost, unit_price, sort_order, source, created_at, updated_at`

// Create appends l to its parent; l.SortOrder is overwritten with the next
// free position.
func (r *SQLiteLineRepo) Create(ctx context.Context, l *domain.LineItem) error {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM line_items WHERE parent_kind = ? AND parent_id = ?`,
		string(l.ParentKind), l.ParentID).Scan(&count); err != nil {
		return fmt.Errorf("counting lines: %w", err)
	}
	l.SortOrder = count

	_, err := r.db.ExecContext(ctx, `INSERT INTO line_items (`+lineColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		string(l.ParentKind),
		l.ParentID,
		nullableStr(l.CatalogItemID),
		l.Description,
		l.Notes,
		l.EquipmentLabel,
		l.Quantity,
		l.UnitCost,
		l.UnitPrice,
		l.SortOrder,
		string(l.Source),
		l.CreatedAt.Format(time.RFC3339),
		l.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting line: %w", err)
	}
	return nil
}

func (r *SQLiteLineRepo) GetByID(ctx context.Context, id string) (*domain.LineItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM line_items WHERE id = ?`, id)
	l, err := scanLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	return l, err
}

func (r *SQLiteLineRepo) ListByParent(ctx context.Context, kind domain.ParentKind, parentID string) ([]*domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+lineColumns+` FROM line_items
		WHERE parent_kind = ? AND parent_id = ?
		ORDER BY sort_order, created_at, id`, string(kind), parentID)
	if err != nil {
		return nil, fmt.Errorf("listing lines: %w", err)
	}
	defer rows.Close()

	var lines []*domain.LineItem
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lines: %w", err)
	}
	return lines, nil
}

// Update writes the editable fields. Parent, position and created_at are
// left alone.
func (r *SQLiteLineRepo) Update(ctx context.Context, l *domain.LineItem) error {
	res, err := r.db.ExecContext(ctx, `UPDATE line_items SET catalog_item_id = ?, description = ?, notes = ?,
		equipment_label = ?, quantity = ?, unit_cost = ?, unit_price = ?, source = ?, updated_at = ?
		WHERE id = ? AND parent_kind = ? AND parent_id = ?`,
		nullableStr(l.CatalogItemID),
		l.Description,
		l.Notes,
		l.EquipmentLabel,
		l.Quantity,
		l.UnitCost,
		l.UnitPrice,
		string(l.Source),
		l.UpdatedAt.Format(time.RFC3339),
		l.ID,
		string(l.ParentKind),
		l.ParentID,
	)
	if err != nil {
		return fmt.Errorf("updating line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("line %s: %w", l.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the line and renumbers the parent's remaining lines.
func (r *SQLiteLineRepo) Delete(ctx context.Context, kind domain.ParentKind, parentID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM line_items WHERE id = ? AND parent_kind = ? AND parent_id = ?`,
		id, string(kind), parentID)
	if err != nil {
		return fmt.Errorf("deleting line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	return r.compact(ctx, kind, parentID)
}

// SetOrder applies a full ordering. order must name every line of the parent
// exactly once and use each position 0..N-1 exactly once.
func (r *SQLiteLineRepo) SetOrder(ctx context.Context, kind domain.ParentKind, parentID string, order []domain.LineOrder) error {
	existing, err := r.ListByParent(ctx, kind, parentID)
	if err != nil {
		return err
	}
	if err := checkPermutation(existing, order); err != nil {
		return err
	}

	now := nowUTC()
	for _, o := range order {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE line_items SET sort_order = ?, updated_at = ? WHERE id = ?`,
			o.SortOrder, now, o.ID); err != nil {
			return fmt.Errorf("setting order of line %s: %w", o.ID, err)
		}
	}
	return nil
}

func (r *SQLiteLineRepo) compact(ctx context.Context, kind domain.ParentKind, parentID string) error {
	lines, err := r.ListByParent(ctx, kind, parentID)
	if err != nil {
		return err
	}
	for i, l := range lines {
		if l.SortOrder == i {
			continue
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE line_items SET sort_order = ? WHERE id = ?`, i, l.ID); err != nil {
			return fmt.Errorf("compacting line %s: %w", l.ID, err)
		}
	}
	return nil
}

func checkPermutation(existing []*domain.LineItem, order []domain.LineOrder) error {
	if len(order) != len(existing) {
		return &domain.ValidationError{Field: "order",
			Message: fmt.Sprintf("expected %d lines, got %d", len(existing), len(order))}
	}
	known := make(map[string]bool, len(existing))
	for _, l := range existing {
		known[l.ID] = true
	}
	seenID := make(map[string]bool, len(order))
	seenPos := make([]bool, len(order))
	for _, o := range order {
		if !known[o.ID] {
			return &domain.ValidationError{Field: "order", Message: fmt.Sprintf("line %s does not belong to this parent", o.ID)}
		}
		if seenID[o.ID] {
			return &domain.ValidationError{Field: "order", Message: fmt.Sprintf("line %s listed twice", o.ID)}
		}
		if o.SortOrder < 0 || o.SortOrder >= len(order) || seenPos[o.SortOrder] {
			return &domain.ValidationError{Field: "order", Message: fmt.Sprintf("position %d is out of range or repeated", o.SortOrder)}
		}
		seenID[o.ID] = true
		seenPos[o.SortOrder] = true
	}
	return nil
}

func scanLine(s scanner) (*domain.LineItem, error) {
	var l domain.LineItem
	var kind, source, createdAtStr, updatedAtStr string
	var catalogID sql.NullString

	err := s.Scan(&l.ID, &kind, &l.ParentID, &catalogID, &l.Description, &l.Notes, &l.EquipmentLabel,
		&l.Quantity, &l.UnitCost, &l.UnitPrice, &l.SortOrder, &source, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning line: %w", err)
	}
	l.ParentKind = domain.ParentKind(kind)
	l.Source = domain.LineSource(source)
	l.CatalogItemID = parseNullableStr(catalogID)
	if err := parseTimestamps(createdAtStr, updatedAtStr, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

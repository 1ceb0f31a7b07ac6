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

type SQLitePartTemplateRepo struct {
	db db.DBTX
}

func NewSQLitePartTemplateRepo(conn db.DBTX) *SQLitePartTemplateRepo {
	return &SQLitePartTemplateRepo{db: conn}
}

const templateColumns = `id, location_id, catalog_item_id, quantity_per_visit, description_override,
	equipment_label, sort_order, created_at, updated_at`

// Create appends the template after the location's existing templates.
func (r *SQLitePartTemplateRepo) Create(ctx context.Context, t *domain.PartTemplate) error {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM part_templates WHERE location_id = ?`, t.LocationID).Scan(&count); err != nil {
		return fmt.Errorf("counting templates: %w", err)
	}
	t.SortOrder = count

	_, err := r.db.ExecContext(ctx, `INSERT INTO part_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.LocationID,
		t.CatalogItemID,
		t.QuantityPerVisit,
		nullableStr(t.DescriptionOverride),
		nullableStr(t.EquipmentLabel),
		t.SortOrder,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting part template: %w", err)
	}
	return nil
}

func (r *SQLitePartTemplateRepo) GetByID(ctx context.Context, id string) (*domain.PartTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM part_templates WHERE id = ?`, id)
	t, err := scanPartTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("part template %s: %w", id, ErrNotFound)
	}
	return t, err
}

func (r *SQLitePartTemplateRepo) ListByLocation(ctx context.Context, locationID string) ([]*domain.PartTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM part_templates
		WHERE location_id = ? ORDER BY sort_order, created_at, id`, locationID)
	if err != nil {
		return nil, fmt.Errorf("listing part templates: %w", err)
	}
	defer rows.Close()

	var out []*domain.PartTemplate
	for rows.Next() {
		t, err := scanPartTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating part templates: %w", err)
	}
	return out, nil
}

func (r *SQLitePartTemplateRepo) Update(ctx context.Context, t *domain.PartTemplate) error {
	res, err := r.db.ExecContext(ctx, `UPDATE part_templates SET catalog_item_id = ?, quantity_per_visit = ?,
		description_override = ?, equipment_label = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		t.CatalogItemID,
		t.QuantityPerVisit,
		nullableStr(t.DescriptionOverride),
		nullableStr(t.EquipmentLabel),
		t.SortOrder,
		t.UpdatedAt.Format(time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating part template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("part template %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLitePartTemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM part_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting part template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("part template %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanPartTemplate(s scanner) (*domain.PartTemplate, error) {
	var t domain.PartTemplate
	var override, label sql.NullString
	var createdAtStr, updatedAtStr string

	err := s.Scan(&t.ID, &t.LocationID, &t.CatalogItemID, &t.QuantityPerVisit,
		&override, &label, &t.SortOrder, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning part template: %w", err)
	}
	t.DescriptionOverride = parseNullableStr(override)
	t.EquipmentLabel = parseNullableStr(label)
	if err := parseTimestamps(createdAtStr, updatedAtStr, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

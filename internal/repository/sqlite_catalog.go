package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
)

type SQLiteCatalogRepo struct {
	db db.DBTX
}

func NewSQLiteCatalogRepo(conn db.DBTX) *SQLiteCatalogRepo {
	return &SQLiteCatalogRepo{db: conn}
}

const catalogColumns = `id, name, cost, unit_price, is_active, created_at, updated_at`

func (r *SQLiteCatalogRepo) Create(ctx context.Context, item *domain.CatalogItem) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO catalog_items (`+catalogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Name,
		item.Cost,
		item.UnitPrice,
		boolToInt(item.IsActive),
		item.CreatedAt.Format(time.RFC3339),
		item.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting catalog item: %w", err)
	}
	return nil
}

func (r *SQLiteCatalogRepo) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = ?`, id)
	item, err := scanCatalogItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog item %s: %w", id, ErrNotFound)
	}
	return item, err
}

func (r *SQLiteCatalogRepo) List(ctx context.Context, includeInactive bool) ([]*domain.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE is_active = 1 ORDER BY name COLLATE NOCASE, id`
	if includeInactive {
		query = `SELECT ` + catalogColumns + ` FROM catalog_items ORDER BY name COLLATE NOCASE, id`
	}
	return r.query(ctx, "listing catalog items", query)
}

// Search matches active items whose name contains query, case-insensitively.
func (r *SQLiteCatalogRepo) Search(ctx context.Context, query string, limit int) ([]*domain.CatalogItem, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.query(ctx, "searching catalog items",
		`SELECT `+catalogColumns+` FROM catalog_items
		WHERE is_active = 1 AND name LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE, id LIMIT ?`, pattern, limit)
}

func (r *SQLiteCatalogRepo) Update(ctx context.Context, item *domain.CatalogItem) error {
	res, err := r.db.ExecContext(ctx, `UPDATE catalog_items SET name = ?, cost = ?, unit_price = ?,
		is_active = ?, updated_at = ? WHERE id = ?`,
		item.Name,
		item.Cost,
		item.UnitPrice,
		boolToInt(item.IsActive),
		item.UpdatedAt.Format(time.RFC3339),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating catalog item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("catalog item %s: %w", item.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteCatalogRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []*domain.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanCatalogItem(s scanner) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	var active int
	var createdAtStr, updatedAtStr string

	err := s.Scan(&item.ID, &item.Name, &item.Cost, &item.UnitPrice, &active, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning catalog item: %w", err)
	}
	item.IsActive = intToBool(active)
	if err := parseTimestamps(createdAtStr, updatedAtStr, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

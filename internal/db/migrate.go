package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations followed by data fix-ups. Every step is
// idempotent so it runs on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is re-run on every open.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateCompactLineOrder(db); err != nil {
		return fmt.Errorf("compacting line sort order: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS maintenance_plans (
		id                    TEXT PRIMARY KEY,
		location_id           TEXT NOT NULL UNIQUE,
		eligible_months       TEXT NOT NULL DEFAULT '',
		has_recurring_service INTEGER NOT NULL DEFAULT 0,
		plan_type             TEXT NOT NULL DEFAULT 'custom'
		                      CHECK(plan_type IN ('monthly','quarterly','semi_annual','annual','custom')),
		next_due_date         TEXT,
		notes                 TEXT NOT NULL DEFAULT '',
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS part_templates (
		id                   TEXT PRIMARY KEY,
		location_id          TEXT NOT NULL REFERENCES maintenance_plans(location_id) ON DELETE CASCADE,
		catalog_item_id      TEXT NOT NULL,
		quantity_per_visit   TEXT NOT NULL,
		description_override TEXT,
		equipment_label      TEXT,
		sort_order           INTEGER NOT NULL DEFAULT 0,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_part_templates_location ON part_templates(location_id)`,

	`CREATE TABLE IF NOT EXISTS catalog_items (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		cost       TEXT NOT NULL DEFAULT '0',
		unit_price TEXT NOT NULL DEFAULT '0',
		is_active  INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_catalog_items_name ON catalog_items(name COLLATE NOCASE)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id             TEXT PRIMARY KEY,
		location_id    TEXT NOT NULL,
		scheduled_date TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'scheduled'
		               CHECK(status IN ('scheduled','in_progress','completed','cancelled')),
		origin         TEXT NOT NULL DEFAULT 'manual'
		               CHECK(origin IN ('pm_plan','manual')),
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_location ON jobs(location_id, scheduled_date)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id          TEXT PRIMARY KEY,
		location_id TEXT NOT NULL,
		job_id      TEXT REFERENCES jobs(id) ON DELETE SET NULL,
		status      TEXT NOT NULL DEFAULT 'draft'
		            CHECK(status IN ('draft','sent','paid','void')),
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS line_items (
		id              TEXT PRIMARY KEY,
		parent_kind     TEXT NOT NULL CHECK(parent_kind IN ('job','invoice')),
		parent_id       TEXT NOT NULL,
		catalog_item_id TEXT,
		description     TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		quantity        TEXT NOT NULL,
		unit_cost       TEXT NOT NULL DEFAULT '0',
		unit_price      TEXT NOT NULL DEFAULT '0',
		sort_order      INTEGER NOT NULL DEFAULT 0,
		source          TEXT NOT NULL DEFAULT 'manual'
		                CHECK(source IN ('manual','catalog','template')),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_line_items_parent ON line_items(parent_kind, parent_id, sort_order)`,

	// Equipment label on lines, carried over from part templates.
	`ALTER TABLE line_items ADD COLUMN equipment_label TEXT NOT NULL DEFAULT ''`,
}

// migrateCompactLineOrder renumbers the lines of any parent whose sort_order
// values are not exactly 0..N-1, keeping the existing relative order
// (sort_order, then created_at, then id). Parents already dense are untouched.
func migrateCompactLineOrder(db *sql.DB) error {
	ctx := context.Background()

	rows, err := db.QueryContext(ctx, `SELECT parent_kind, parent_id
		FROM line_items
		GROUP BY parent_kind, parent_id
		HAVING MIN(sort_order) != 0
		    OR MAX(sort_order) != COUNT(*) - 1
		    OR COUNT(DISTINCT sort_order) != COUNT(*)`)
	if err != nil {
		return fmt.Errorf("finding sparse parents: %w", err)
	}
	type parent struct{ kind, id string }
	var parents []parent
	for rows.Next() {
		var p parent
		if err := rows.Scan(&p.kind, &p.id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning parent: %w", err)
		}
		parents = append(parents, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating parents: %w", err)
	}

	for _, p := range parents {
		if err := compactParent(ctx, db, p.kind, p.id); err != nil {
			return fmt.Errorf("compacting %s %s: %w", p.kind, p.id, err)
		}
	}
	return nil
}

func compactParent(ctx context.Context, db *sql.DB, kind, parentID string) error {
	rows, err := db.QueryContext(ctx, `SELECT id FROM line_items
		WHERE parent_kind = ? AND parent_id = ?
		ORDER BY sort_order, created_at, id`, kind, parentID)
	if err != nil {
		return fmt.Errorf("listing lines: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning compaction: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE line_items SET sort_order = ? WHERE id = ?`, i, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("updating line %s: %w", id, err)
		}
	}
	return tx.Commit()
}

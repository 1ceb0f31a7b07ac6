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

// SQLitePlanRepo implements PlanRepo using a SQLite database.
type SQLitePlanRepo struct {
	db db.DBTX
}

func NewSQLitePlanRepo(conn db.DBTX) *SQLitePlanRepo {
	return &SQLitePlanRepo{db: conn}
}

const planColumns = `id, location_id, eligible_months, has_recurring_service, plan_type,
	next_due_date, notes, created_at, updated_at`

func (r *SQLitePlanRepo) GetByLocation(ctx context.Context, locationID string) (*domain.MaintenancePlan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM maintenance_plans WHERE location_id = ?`, locationID)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan for location %s: %w", locationID, ErrNotFound)
	}
	return p, err
}

func (r *SQLitePlanRepo) List(ctx context.Context) ([]*domain.MaintenancePlan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+planColumns+` FROM maintenance_plans ORDER BY location_id`)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.MaintenancePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

// Upsert inserts the plan or replaces the mutable fields of the location's
// existing plan. The stored ID and created_at of an existing plan win.
func (r *SQLitePlanRepo) Upsert(ctx context.Context, p *domain.MaintenancePlan) error {
	query := `INSERT INTO maintenance_plans (` + planColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id) DO UPDATE SET
			eligible_months = excluded.eligible_months,
			has_recurring_service = excluded.has_recurring_service,
			plan_type = excluded.plan_type,
			next_due_date = excluded.next_due_date,
			notes = excluded.notes,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.LocationID,
		monthsToCSV(p.EligibleMonths),
		boolToInt(p.HasRecurringService),
		string(p.PlanType),
		nullableTimeToString(p.NextDueDate, dateLayout),
		p.Notes,
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting plan: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) SetNextDue(ctx context.Context, locationID string, next *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE maintenance_plans SET next_due_date = ?, updated_at = ? WHERE location_id = ?`,
		nullableTimeToString(next, dateLayout), nowUTC(), locationID)
	if err != nil {
		return fmt.Errorf("updating next due date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan for location %s: %w", locationID, ErrNotFound)
	}
	return nil
}

func scanPlan(s scanner) (*domain.MaintenancePlan, error) {
	var p domain.MaintenancePlan
	var monthsStr, planType, createdAtStr, updatedAtStr string
	var recurring int
	var nextDue sql.NullString

	err := s.Scan(&p.ID, &p.LocationID, &monthsStr, &recurring, &planType,
		&nextDue, &p.Notes, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning plan: %w", err)
	}

	p.EligibleMonths, err = parseMonthsCSV(monthsStr)
	if err != nil {
		return nil, err
	}
	p.HasRecurringService = intToBool(recurring)
	p.PlanType = domain.PlanType(planType)
	p.NextDueDate = parseNullableTime(nextDue, dateLayout)
	if err := parseTimestamps(createdAtStr, updatedAtStr, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

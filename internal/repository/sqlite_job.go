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

// SQLiteJobRepo persists job headers. Lines live in line_items and are
// handled by SQLiteLineRepo.
type SQLiteJobRepo struct {
	db db.DBTX
}

func NewSQLiteJobRepo(conn db.DBTX) *SQLiteJobRepo {
	return &SQLiteJobRepo{db: conn}
}

const jobColumns = `id, location_id, scheduled_date, status, origin, created_at, updated_at`

func (r *SQLiteJobRepo) Create(ctx context.Context, j *domain.ScheduledJob) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.ID,
		j.LocationID,
		j.ScheduledDate.Format(dateLayout),
		string(j.Status),
		string(j.Origin),
		j.CreatedAt.Format(time.RFC3339),
		j.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepo) GetByID(ctx context.Context, id string) (*domain.ScheduledJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j, err
}

func (r *SQLiteJobRepo) ListByLocation(ctx context.Context, locationID string) ([]*domain.ScheduledJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs
		WHERE location_id = ? ORDER BY scheduled_date, created_at, id`, locationID)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

func (r *SQLiteJobRepo) Update(ctx context.Context, j *domain.ScheduledJob) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET scheduled_date = ?, status = ?, updated_at = ? WHERE id = ?`,
		j.ScheduledDate.Format(dateLayout),
		string(j.Status),
		j.UpdatedAt.Format(time.RFC3339),
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %s: %w", j.ID, ErrNotFound)
	}
	return nil
}

func scanJob(s scanner) (*domain.ScheduledJob, error) {
	var j domain.ScheduledJob
	var dateStr, status, origin, createdAtStr, updatedAtStr string

	err := s.Scan(&j.ID, &j.LocationID, &dateStr, &status, &origin, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	j.Status = domain.JobStatus(status)
	j.Origin = domain.JobOrigin(origin)
	j.ScheduledDate, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing scheduled_date: %w", err)
	}
	if err := parseTimestamps(createdAtStr, updatedAtStr, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

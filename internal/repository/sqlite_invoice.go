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

type SQLiteInvoiceRepo struct {
	db db.DBTX
}

func NewSQLiteInvoiceRepo(conn db.DBTX) *SQLiteInvoiceRepo {
	return &SQLiteInvoiceRepo{db: conn}
}

const invoiceColumns = `id, location_id, job_id, status, created_at, updated_at`

func (r *SQLiteInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.LocationID,
		nullableStr(inv.JobID),
		string(inv.Status),
		inv.CreatedAt.Format(time.RFC3339),
		inv.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

func (r *SQLiteInvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return inv, err
}

func (r *SQLiteInvoiceRepo) List(ctx context.Context) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var out []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}
	return out, nil
}

func scanInvoice(s scanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var jobID sql.NullString
	var status, createdAtStr, updatedAtStr string

	err := s.Scan(&inv.ID, &inv.LocationID, &jobID, &status, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}
	inv.JobID = parseNullableStr(jobID)
	inv.Status = domain.InvoiceStatus(status)
	if err := parseTimestamps(createdAtStr, updatedAtStr, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

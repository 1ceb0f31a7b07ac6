package domain

import "fmt"

// ValidationError is a local, pre-network rejection. It never reaches a store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// PlanInactiveError is returned when a job is generated from a plan whose
// recurring service is disabled.
type PlanInactiveError struct {
	LocationID string
}

func (e *PlanInactiveError) Error() string {
	return fmt.Sprintf("maintenance plan for location %s has recurring service disabled", e.LocationID)
}

// WarningCatalogItemMissing is the reason carried by CatalogItemMissingWarning.
const WarningCatalogItemMissing = "catalog item missing"

// CatalogItemMissingWarning records a template skipped during generation.
type CatalogItemMissingWarning struct {
	TemplateID    string
	CatalogItemID string
	Reason        string
}

func (w CatalogItemMissingWarning) String() string {
	return fmt.Sprintf("template %s skipped: %s (%s)", w.TemplateID, w.Reason, w.CatalogItemID)
}

// PersistenceError wraps a failed create, update, delete or reorder call.
type PersistenceError struct {
	Op     string
	LineID string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.LineID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s line %s failed: %v", e.Op, e.LineID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package domain

import (
	"fmt"
	"time"
)

type ScheduledJob struct {
	ID            string
	LocationID    string
	ScheduledDate time.Time
	Status        JobStatus
	Origin        JobOrigin
	Lines         []LineItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanTransitionTo reports whether the job may move to the target status.
// Completed and cancelled jobs are terminal.
func (j *ScheduledJob) CanTransitionTo(target JobStatus) bool {
	if !ValidJobStatuses[string(target)] {
		return false
	}
	switch j.Status {
	case JobCompleted, JobCancelled:
		return false
	case JobInProgress:
		return target != JobScheduled
	}
	return true
}

type Invoice struct {
	ID         string
	LocationID string
	JobID      *string
	Status     InvoiceStatus
	Lines      []LineItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transition moves the job to target, stamping UpdatedAt.
func (j *ScheduledJob) Transition(target JobStatus, now time.Time) error {
	if j.Status == target {
		return nil
	}
	if !j.CanTransitionTo(target) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("cannot move job from %s to %s", j.Status, target)}
	}
	j.Status = target
	j.UpdatedAt = now
	return nil
}

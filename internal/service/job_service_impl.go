package service

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/generation"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/google/uuid"
)

type jobService struct {
	plans     repository.PlanRepo
	templates repository.PartTemplateRepo
	jobs      repository.JobRepo
	lines     repository.LineRepo
	resolver  generation.Resolver
	uow       db.UnitOfWork
	anchorDay int
	now       func() time.Time
	observer  UseCaseObserver
}

func NewJobService(
	plans repository.PlanRepo,
	templates repository.PartTemplateRepo,
	jobs repository.JobRepo,
	lines repository.LineRepo,
	resolver generation.Resolver,
	uow db.UnitOfWork,
	anchorDay int,
	observers ...UseCaseObserver,
) JobService {
	return &jobService{
		plans:     plans,
		templates: templates,
		jobs:      jobs,
		lines:     lines,
		resolver:  resolver,
		uow:       uow,
		anchorDay: clampAnchorDay(anchorDay),
		now:       func() time.Time { return time.Now().UTC() },
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *jobService) Generate(ctx context.Context, locationID string, targetDate time.Time) (result *GenerateResult, err error) {
	fields := map[string]any{"location": locationID}
	defer observe(ctx, s.observer, "generate-job", time.Now().UTC(), fields, &err)

	if !targetDate.IsZero() {
		targetDate = civilDate(targetDate)
	}

	plan, err := s.plans.GetByLocation(ctx, locationID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	templates, err := s.templates.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	// Catalog reads happen before the transaction opens; the resolver has its
	// own connection to the store.
	built, err := generation.Build(ctx, generation.Input{
		Plan:       plan,
		Templates:  templates,
		TargetDate: targetDate,
		Now:        s.now(),
		AnchorDay:  s.anchorDay,
	}, s.resolver)
	if err != nil {
		return nil, err
	}
	job := built.Job

	// TODO: decide whether a second pm_plan job for the same location and
	// scheduled date should be rejected; today both calls create a job.
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteJobRepo(tx).Create(ctx, job); err != nil {
			return err
		}
		txLines := repository.NewSQLiteLineRepo(tx)
		for i := range job.Lines {
			if err := txLines.Create(ctx, &job.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["job"] = job.ID
	fields["scheduled_date"] = job.ScheduledDate.Format("2006-01-02")
	fields["line_count"] = len(job.Lines)
	fields["warning_count"] = len(built.Warnings)
	return &GenerateResult{
		Job:      job,
		Warnings: built.Warnings,
		Totals:   domain.ComputeTotals(job.Lines),
	}, nil
}

func (s *jobService) Create(ctx context.Context, locationID string, scheduledDate time.Time) (*domain.ScheduledJob, error) {
	if locationID == "" {
		return nil, &domain.ValidationError{Field: "location_id", Message: "location is required"}
	}
	if scheduledDate.IsZero() {
		return nil, &domain.ValidationError{Field: "scheduled_date", Message: "scheduled date is required"}
	}
	now := s.now()
	job := &domain.ScheduledJob{
		ID:            uuid.New().String(),
		LocationID:    locationID,
		ScheduledDate: civilDate(scheduledDate),
		Status:        domain.JobScheduled,
		Origin:        domain.OriginManual,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) GetByID(ctx context.Context, id string) (*domain.ScheduledJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines.ListByParent(ctx, domain.ParentJob, id)
	if err != nil {
		return nil, err
	}
	job.Lines = derefLines(lines)
	return job, nil
}

func (s *jobService) ListByLocation(ctx context.Context, locationID string) ([]*domain.ScheduledJob, error) {
	return s.jobs.ListByLocation(ctx, locationID)
}

// UpdateStatus moves a job through its lifecycle. Completing a plan-generated
// job advances the location's next due date past the visit.
func (s *jobService) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) (job *domain.ScheduledJob, err error) {
	fields := map[string]any{"job": id, "status": string(status)}
	defer observe(ctx, s.observer, "update-job-status", time.Now().UTC(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txJobs := repository.NewSQLiteJobRepo(tx)
		j, err := txJobs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous := j.Status
		if err := j.Transition(status, s.now()); err != nil {
			return err
		}
		if err := txJobs.Update(ctx, j); err != nil {
			return err
		}
		if status == domain.JobCompleted && previous != domain.JobCompleted && j.Origin == domain.OriginPMPlan {
			plan, err := advancePlan(ctx, repository.NewSQLitePlanRepo(tx), j.LocationID, j.ScheduledDate, s.anchorDay)
			switch {
			case isNotFound(err):
			case err != nil:
				return err
			default:
				fields["next_due"] = plan.NextDueDate
			}
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

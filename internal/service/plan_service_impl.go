package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/google/uuid"
)

type planService struct {
	plans     repository.PlanRepo
	templates repository.PartTemplateRepo
	uow       db.UnitOfWork
	anchorDay int
	now       func() time.Time
	observer  UseCaseObserver
}

func NewPlanService(plans repository.PlanRepo, templates repository.PartTemplateRepo, uow db.UnitOfWork, anchorDay int, observers ...UseCaseObserver) PlanService {
	return &planService{
		plans:     plans,
		templates: templates,
		uow:       uow,
		anchorDay: clampAnchorDay(anchorDay),
		now:       func() time.Time { return time.Now().UTC() },
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *planService) Get(ctx context.Context, locationID string) (*domain.MaintenancePlan, error) {
	return s.plans.GetByLocation(ctx, locationID)
}

func (s *planService) List(ctx context.Context) ([]*domain.MaintenancePlan, error) {
	return s.plans.List(ctx)
}

func (s *planService) Configure(ctx context.Context, cfg PlanConfig) (plan *domain.MaintenancePlan, err error) {
	fields := map[string]any{"location": cfg.LocationID}
	defer observe(ctx, s.observer, "configure-plan", time.Now().UTC(), fields, &err)

	if cfg.PlanType == "" {
		cfg.PlanType = domain.PlanCustom
	}
	now := s.now()
	plan = &domain.MaintenancePlan{
		ID:                  uuid.New().String(),
		LocationID:          cfg.LocationID,
		EligibleMonths:      cfg.EligibleMonths,
		HasRecurringService: cfg.HasRecurringService,
		PlanType:            cfg.PlanType,
		Notes:               cfg.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err = plan.Validate(); err != nil {
		return nil, err
	}
	plan.NextDueDate = nextDueFor(plan, now, s.anchorDay)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPlans := repository.NewSQLitePlanRepo(tx)
		if err := txPlans.Upsert(ctx, plan); err != nil {
			return err
		}
		stored, err := txPlans.GetByLocation(ctx, plan.LocationID)
		if err != nil {
			return err
		}
		plan = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["next_due"] = plan.NextDueDate
	return plan, nil
}

func (s *planService) SetEligibleMonths(ctx context.Context, locationID string, months []int) (*domain.MaintenancePlan, error) {
	return s.mutate(ctx, "set-eligible-months", locationID, func(p *domain.MaintenancePlan) error {
		normalized, err := domain.NormalizeMonths(months)
		if err != nil {
			return err
		}
		p.EligibleMonths = normalized
		return nil
	})
}

func (s *planService) SetActive(ctx context.Context, locationID string, active bool) (*domain.MaintenancePlan, error) {
	return s.mutate(ctx, "set-plan-active", locationID, func(p *domain.MaintenancePlan) error {
		p.HasRecurringService = active
		return nil
	})
}

// mutate loads, changes and stores a plan in one transaction, recomputing the
// next due date from now.
func (s *planService) mutate(ctx context.Context, name, locationID string, change func(*domain.MaintenancePlan) error) (plan *domain.MaintenancePlan, err error) {
	fields := map[string]any{"location": locationID}
	defer observe(ctx, s.observer, name, time.Now().UTC(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPlans := repository.NewSQLitePlanRepo(tx)
		p, err := txPlans.GetByLocation(ctx, locationID)
		if err != nil {
			return err
		}
		if err := change(p); err != nil {
			return err
		}
		now := s.now()
		p.NextDueDate = nextDueFor(p, now, s.anchorDay)
		p.UpdatedAt = now
		if err := txPlans.Upsert(ctx, p); err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["next_due"] = plan.NextDueDate
	return plan, nil
}

func (s *planService) NextDue(ctx context.Context, locationID string, ref time.Time) (time.Time, error) {
	plan, err := s.plans.GetByLocation(ctx, locationID)
	if err != nil {
		return time.Time{}, err
	}
	if len(plan.EligibleMonths) == 0 {
		return time.Time{}, &domain.ValidationError{Field: "eligible_months", Message: "plan has no eligible months"}
	}
	next := nextDueFor(&domain.MaintenancePlan{HasRecurringService: true, EligibleMonths: plan.EligibleMonths}, ref, s.anchorDay)
	return *next, nil
}

func (s *planService) AdvanceNextDue(ctx context.Context, locationID string, after time.Time) (plan *domain.MaintenancePlan, err error) {
	fields := map[string]any{"location": locationID, "after": after.Format("2006-01-02")}
	defer observe(ctx, s.observer, "advance-next-due", time.Now().UTC(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err := advancePlan(ctx, repository.NewSQLitePlanRepo(tx), locationID, after, s.anchorDay)
		plan = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// advancePlan moves the stored next due date past after. Inactive plans and
// plans without months are left without a due date.
func advancePlan(ctx context.Context, plans repository.PlanRepo, locationID string, after time.Time, anchorDay int) (*domain.MaintenancePlan, error) {
	p, err := plans.GetByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	p.NextDueDate = nextDueFor(p, after, anchorDay)
	if err := plans.SetNextDue(ctx, locationID, p.NextDueDate); err != nil {
		return nil, fmt.Errorf("advancing next due: %w", err)
	}
	return p, nil
}

func (s *planService) AddTemplate(ctx context.Context, t *domain.PartTemplate) (err error) {
	fields := map[string]any{"location": t.LocationID, "catalog_item": t.CatalogItemID}
	defer observe(ctx, s.observer, "add-part-template", time.Now().UTC(), fields, &err)

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err = t.Validate(); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLitePlanRepo(tx).GetByLocation(ctx, t.LocationID); err != nil {
			if isNotFound(err) {
				return &domain.ValidationError{Field: "location_id", Message: "configure a maintenance plan for this location first"}
			}
			return err
		}
		if _, err := repository.NewSQLiteCatalogRepo(tx).GetByID(ctx, t.CatalogItemID); err != nil {
			if isNotFound(err) {
				return &domain.ValidationError{Field: "catalog_item_id", Message: fmt.Sprintf("unknown catalog item %s", t.CatalogItemID)}
			}
			return err
		}
		return repository.NewSQLitePartTemplateRepo(tx).Create(ctx, t)
	})
}

func (s *planService) ListTemplates(ctx context.Context, locationID string) ([]*domain.PartTemplate, error) {
	return s.templates.ListByLocation(ctx, locationID)
}

func (s *planService) UpdateTemplate(ctx context.Context, t *domain.PartTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.UpdatedAt = s.now()
	return s.templates.Update(ctx, t)
}

func (s *planService) RemoveTemplate(ctx context.Context, locationID, templateID string) (err error) {
	fields := map[string]any{"location": locationID, "template": templateID}
	defer observe(ctx, s.observer, "remove-part-template", time.Now().UTC(), fields, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLitePartTemplateRepo(tx)
		t, err := txTemplates.GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		if t.LocationID != locationID {
			return fmt.Errorf("template %s at location %s: %w", templateID, locationID, repository.ErrNotFound)
		}
		return txTemplates.Delete(ctx, templateID)
	})
}

package service

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/scheduler"
)

type upcomingService struct {
	plans     repository.PlanRepo
	anchorDay int
	observer  UseCaseObserver
}

func NewUpcomingService(plans repository.PlanRepo, anchorDay int, observers ...UseCaseObserver) UpcomingService {
	return &upcomingService{plans: plans, anchorDay: clampAnchorDay(anchorDay), observer: useCaseObserverOrNoop(observers)}
}

func (s *upcomingService) List(ctx context.Context, from time.Time, days int) (visits []scheduler.UpcomingVisit, err error) {
	fields := map[string]any{"days": days}
	defer observe(ctx, s.observer, "list-upcoming", time.Now().UTC(), fields, &err)

	if days <= 0 {
		days = 60
	}
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	visits = scheduler.Upcoming(plans, from, days, s.anchorDay)
	fields["visit_count"] = len(visits)
	return visits, nil
}

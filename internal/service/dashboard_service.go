package service

import (
	"context"
	"time"

	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

type DashboardService struct {
	StatsRepo repository.StatsRepositoryInterface
	Clock     func() time.Time
}

func (s *DashboardService) Stats(ctx context.Context) (*repository.DashboardStats, error) {
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock().UTC()
	}
	return s.StatsRepo.Dashboard(ctx, now)
}

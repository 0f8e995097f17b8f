package service

import (
	"context"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"
)

const popularLapanganLimit = 5

type StatsService struct {
	repo domain.StatsRepository
}

func NewStatsService(repo domain.StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

// Dashboard collects booking counts per status, daily revenue and the most booked fields.
func (s *StatsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	bookings, err := s.repo.GetBookingStats(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.GetRevenueStats(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.repo.GetPopularLapangans(ctx, popularLapanganLimit)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{Bookings: bookings, Revenue: revenue, Popular: popular}, nil
}

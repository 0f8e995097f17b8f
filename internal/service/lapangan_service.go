package service

import (
	"context"
	"strings"

	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/models"
)

type LapanganService struct {
	repo domain.LapanganRepository
}

func NewLapanganService(repo domain.LapanganRepository) *LapanganService {
	return &LapanganService{repo: repo}
}

func (s *LapanganService) ListLapangans(ctx context.Context) ([]*models.Lapangan, error) {
	return s.repo.ListActiveLapangans(ctx)
}

func (s *LapanganService) GetLapangan(ctx context.Context, id int64) (*models.Lapangan, error) {
	return s.repo.GetLapangan(ctx, id)
}

// Search filters active fields by keyword, location, price range and facilities.
func (s *LapanganService) Search(ctx context.Context, f models.LapanganFilter) ([]*models.Lapangan, error) {
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.Location = strings.TrimSpace(f.Location)
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return nil, domain.Invalid("min_price must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MaxPrice < *f.MinPrice {
		return nil, domain.Invalid("max_price must not be less than min_price")
	}

	var facilities []string
	for _, fac := range f.Facilities {
		if fac = strings.TrimSpace(fac); fac != "" {
			facilities = append(facilities, fac)
		}
	}
	f.Facilities = facilities
	return s.repo.SearchLapangans(ctx, f)
}

package service

import (
	"context"
	"math"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/repository"
)

type StatsService struct {
	StatsRepo repository.StatsRepositoryInterface
}

// GetStats returns the dashboard aggregates of userID. Rates and averages are
// rounded to one decimal; both are 0 when there are no leads.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*model.Stats, error) {
	stats, err := s.StatsRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal("get stats", err)
	}
	stats.AverageRating = round1(stats.AverageRating)
	stats.ValidationRate = 0
	if stats.TotalLeads > 0 {
		stats.ValidationRate = round1(float64(stats.ValidatedLeads) / float64(stats.TotalLeads) * 100)
	}
	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

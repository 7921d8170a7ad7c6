package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/leadgen-backend/internal/model"
)

type StatsRepositoryInterface interface {
	GetStats(ctx context.Context, userID string) (*model.Stats, error)
}

type StatsRepository struct {
	DB *sql.DB
}

// GetStats aggregates the campaigns of userID and the leads reachable through them.
func (r *StatsRepository) GetStats(ctx context.Context, userID string) (*model.Stats, error) {
	var s model.Stats

	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'running'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM campaigns WHERE user_id=$1`, userID).
		Scan(&s.TotalCampaigns, &s.RunningCampaigns, &s.CompletedCampaigns)
	if err != nil {
		return nil, err
	}

	var avgRating sql.NullFloat64
	err = r.DB.QueryRowContext(ctx, `
		SELECT COUNT(l.id),
			COUNT(l.id) FILTER (WHERE l.is_validated),
			COUNT(l.id) FILTER (WHERE l.contact_status <> 'not_contacted'),
			AVG(l.rating)
		FROM leads l
		INNER JOIN campaigns c ON c.id = l.campaign_id
		WHERE c.user_id=$1`, userID).
		Scan(&s.TotalLeads, &s.ValidatedLeads, &s.ContactedLeads, &avgRating)
	if err != nil {
		return nil, err
	}
	if avgRating.Valid {
		s.AverageRating = avgRating.Float64
	}
	return &s, nil
}

var _ StatsRepositoryInterface = (*StatsRepository)(nil)

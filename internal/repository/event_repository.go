package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/leadgen-backend/internal/model"
)

type EventRepositoryInterface interface {
	Insert(ctx context.Context, e *model.CampaignEvent) error
	ListByCampaign(ctx context.Context, campaignID, limit int) ([]*model.CampaignEvent, error)
}

type EventRepository struct {
	DB *sql.DB
}

func (r *EventRepository) Insert(ctx context.Context, e *model.CampaignEvent) error {
	query := `
		INSERT INTO campaign_events (campaign_id, user_id, type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, e.CampaignID, e.UserID, e.Type, []byte(e.Payload)).
		Scan(&e.ID, &e.CreatedAt)
}

// ListByCampaign returns the most recent events first.
func (r *EventRepository) ListByCampaign(ctx context.Context, campaignID, limit int) ([]*model.CampaignEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, campaign_id, user_id, type, payload, created_at
		FROM campaign_events WHERE campaign_id=$1
		ORDER BY id DESC LIMIT $2`, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*model.CampaignEvent{}
	for rows.Next() {
		var e model.CampaignEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.UserID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		events = append(events, &e)
	}
	return events, rows.Err()
}

var _ EventRepositoryInterface = (*EventRepository)(nil)

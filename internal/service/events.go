package service

import (
	"log/slog"

	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/queue"
)

// publishEvent wraps msg in an envelope for userID and hands it to the event bus.
// Delivery is best effort; failures are logged.
func publishEvent(q queue.Queue, userID string, campaignID int, typ model.EventType, msg any) {
	if q == nil {
		return
	}
	env, err := model.NewEnvelope(userID, campaignID, typ, msg)
	if err != nil {
		slog.Error("encode event", "module", "service", "operation", "publish", "type", typ, "error", err)
		return
	}
	if err := q.Publish(queue.TopicCampaignEvents, env); err != nil {
		slog.Warn("publish event", "module", "service", "operation", "publish", "type", typ,
			"campaign_id", campaignID, "outcome", "dropped", "error", err)
	}
}

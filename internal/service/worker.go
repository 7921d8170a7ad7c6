package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unclebandit/leadgen-backend/internal/model"
)

// ErrMalformedEvent marks a payload that can never be processed. It must not be retried.
var ErrMalformedEvent = errors.New("malformed event")

// EventStore defines the methods the worker needs
type EventStore interface {
	Insert(ctx context.Context, e *model.CampaignEvent) error
}

// EventWorker persists campaign event envelopes relayed through the broker.
type EventWorker struct {
	Events EventStore
}

func NewEventWorker(events EventStore) *EventWorker {
	return &EventWorker{Events: events}
}

// Process decodes one serialized model.Envelope and stores it.
func (w *EventWorker) Process(ctx context.Context, body []byte) (*model.CampaignEvent, error) {
	var env model.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.CampaignID == 0 || env.UserID == "" || env.Type == "" || len(env.Message) == 0 {
		return nil, fmt.Errorf("%w: incomplete envelope", ErrMalformedEvent)
	}

	e := &model.CampaignEvent{
		CampaignID: env.CampaignID,
		UserID:     env.UserID,
		Type:       env.Type,
		Payload:    env.Message,
	}
	if err := w.Events.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

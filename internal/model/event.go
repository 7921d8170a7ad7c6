// internal/model/event.go
package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventScrapingProgress  EventType = "scraping_progress"
	EventScrapingCompleted EventType = "scraping_completed"
	EventCampaignUpdated   EventType = "campaign_updated"
)

// ProgressMessage is the client-facing body of a scraping_progress event.
type ProgressMessage struct {
	Type        EventType `json:"type"`
	CampaignID  int       `json:"campaignId"`
	Progress    int       `json:"progress"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
	LeadsFound  int       `json:"leadsFound"`
}

type CompletedMessage struct {
	Type       EventType `json:"type"`
	CampaignID int       `json:"campaignId"`
}

type CampaignUpdatedMessage struct {
	Type     EventType `json:"type"`
	Campaign *Campaign `json:"campaign"`
}

// Envelope routes one serialized client message to the connections of a user.
type Envelope struct {
	UserID     string          `json:"userId"`
	CampaignID int             `json:"campaignId"`
	Type       EventType       `json:"type"`
	Message    json.RawMessage `json:"message"`
}

func NewEnvelope(userID string, campaignID int, typ EventType, msg any) (Envelope, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{UserID: userID, CampaignID: campaignID, Type: typ, Message: raw}, nil
}

// CampaignEvent is a persisted envelope.
type CampaignEvent struct {
	ID         int             `db:"id" json:"id"`
	CampaignID int             `db:"campaign_id" json:"campaignId"`
	UserID     string          `db:"user_id" json:"userId"`
	Type       EventType       `db:"type" json:"type"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

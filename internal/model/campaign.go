// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusRunning   CampaignStatus = "running"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
)

type ScrapingMode string

const (
	ModeFast     ScrapingMode = "fast"
	ModeStandard ScrapingMode = "standard"
	ModeThorough ScrapingMode = "thorough"
	ModeDebug    ScrapingMode = "debug"
)

const (
	DefaultPageLimit = 50
	DefaultDelay     = 1.5
	DefaultRadius    = 10
)

type Campaign struct {
	ID             int            `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"userId"`
	Name           string         `db:"name" json:"name"`
	TargetCategory string         `db:"target_category" json:"targetCategory"`
	Location       string         `db:"location" json:"location"`
	Radius         int            `db:"radius" json:"radius"`
	ScrapingMode   ScrapingMode   `db:"scraping_mode" json:"scrapingMode"`
	PageLimit      int            `db:"page_limit" json:"pageLimit"`
	Delay          float64        `db:"delay" json:"delay"`
	Status         CampaignStatus `db:"status" json:"status"`
	Progress       int            `db:"progress" json:"progress"`
	TotalPages     int            `db:"total_pages" json:"totalPages"`
	LeadsFound     int            `db:"leads_found" json:"leadsFound"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// transitions lists, per status, the statuses a campaign may move to.
// Writing the current status back is allowed, except for running, and not listed here.
var transitions = map[CampaignStatus][]CampaignStatus{
	StatusDraft:     {StatusRunning},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusDraft},
	StatusCompleted: {StatusRunning, StatusDraft},
	StatusFailed:    {StatusRunning, StatusDraft},
}

func (s CampaignStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a campaign in status from may be moved to status to.
func CanTransition(from, to CampaignStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return to != StatusRunning
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (m ScrapingMode) Valid() bool {
	switch m {
	case ModeFast, ModeStandard, ModeThorough, ModeDebug:
		return true
	}
	return false
}

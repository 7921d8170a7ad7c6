// internal/service/campaign_service.go
package service

import (
	"context"
	"log/slog"
	"strings"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/queue"
	"github.com/unclebandit/leadgen-backend/internal/repository"
)

const (
	maxNameLength    = 255
	defaultEventPage = 50
	maxEventPage     = 500
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	EventRepo    repository.EventRepositoryInterface
	Simulator    *Simulator
	Queue        queue.Queue
}

type CreateCampaignInput struct {
	Name           string             `json:"name"`
	TargetCategory string             `json:"targetCategory"`
	Location       string             `json:"location"`
	Radius         *int               `json:"radius"`
	ScrapingMode   model.ScrapingMode `json:"scrapingMode"`
	PageLimit      *int               `json:"pageLimit"`
	Delay          *float64           `json:"delay"`
}

// UpdateCampaignInput is a partial update; nil fields are left unchanged.
type UpdateCampaignInput struct {
	Name           *string               `json:"name"`
	TargetCategory *string               `json:"targetCategory"`
	Location       *string               `json:"location"`
	Radius         *int                  `json:"radius"`
	ScrapingMode   *model.ScrapingMode   `json:"scrapingMode"`
	PageLimit      *int                  `json:"pageLimit"`
	Delay          *float64              `json:"delay"`
	Status         *model.CampaignStatus `json:"status"`
}

func (s *CampaignService) CreateCampaign(ctx context.Context, userID string, in CreateCampaignInput) (*model.Campaign, error) {
	c := &model.Campaign{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		TargetCategory: strings.TrimSpace(in.TargetCategory),
		Location:       strings.TrimSpace(in.Location),
		Radius:         model.DefaultRadius,
		ScrapingMode:   in.ScrapingMode,
		PageLimit:      model.DefaultPageLimit,
		Delay:          model.DefaultDelay,
		Status:         model.StatusDraft,
	}
	if c.ScrapingMode == "" {
		c.ScrapingMode = model.ModeStandard
	}
	if in.Radius != nil {
		c.Radius = *in.Radius
	}
	if in.PageLimit != nil {
		c.PageLimit = *in.PageLimit
	}
	if in.Delay != nil {
		c.Delay = *in.Delay
	}
	if err := validateCampaign(c); err != nil {
		return nil, err
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, appErrors.Internal("create campaign", err)
	}
	slog.InfoContext(ctx, "campaign created", "module", "campaign", "operation", "create", "campaign_id", c.ID, "user_id", userID)
	return c, nil
}

func validateCampaign(c *model.Campaign) error {
	switch {
	case c.Name == "":
		return appErrors.Validation("name is required")
	case len(c.Name) > maxNameLength:
		return appErrors.Validation("name must be at most %d characters", maxNameLength)
	case c.TargetCategory == "":
		return appErrors.Validation("targetCategory is required")
	case c.Location == "":
		return appErrors.Validation("location is required")
	case c.Radius < 1 || c.Radius > 100:
		return appErrors.Validation("radius must be between 1 and 100")
	case c.PageLimit < 1 || c.PageLimit > 500:
		return appErrors.Validation("pageLimit must be between 1 and 500")
	case c.Delay < 0 || c.Delay > 60:
		return appErrors.Validation("delay must be between 0 and 60")
	case !c.ScrapingMode.Valid():
		return appErrors.Validation("invalid scrapingMode %q", c.ScrapingMode)
	}
	return nil
}

// ListCampaigns returns the campaigns of userID, newest first.
func (s *CampaignService) ListCampaigns(ctx context.Context, userID string) ([]*model.Campaign, error) {
	campaigns, err := s.CampaignRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal("list campaigns", err)
	}
	return campaigns, nil
}

// GetCampaign returns the campaign if userID owns it. Campaigns of other users are reported as not found.
func (s *CampaignService) GetCampaign(ctx context.Context, userID string, id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, err
		}
		return nil, appErrors.Internal("get campaign", err)
	}
	if c.UserID != userID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

// UpdateCampaign applies a partial update. A status change must follow the
// campaign state machine: leaving running stops the active run, entering
// running starts a new one.
func (s *CampaignService) UpdateCampaign(ctx context.Context, userID string, id int, in UpdateCampaignInput) (*model.Campaign, error) {
	c, err := s.GetCampaign(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.TargetCategory != nil {
		c.TargetCategory = strings.TrimSpace(*in.TargetCategory)
	}
	if in.Location != nil {
		c.Location = strings.TrimSpace(*in.Location)
	}
	if in.Radius != nil {
		c.Radius = *in.Radius
	}
	if in.ScrapingMode != nil {
		c.ScrapingMode = *in.ScrapingMode
	}
	if in.PageLimit != nil {
		c.PageLimit = *in.PageLimit
	}
	if in.Delay != nil {
		c.Delay = *in.Delay
	}
	if err := validateCampaign(c); err != nil {
		return nil, err
	}

	from, to := c.Status, c.Status
	if in.Status != nil {
		to = *in.Status
		if !to.Valid() {
			return nil, appErrors.Validation("invalid status %q", to)
		}
		if to != from && !model.CanTransition(from, to) {
			return nil, appErrors.Conflict("cannot move campaign from %s to %s", from, to)
		}
	}

	switch {
	case to == from:
		if err := s.CampaignRepo.Update(ctx, c); err != nil {
			return nil, updateError(err)
		}
	case to == model.StatusRunning:
		// A refused start must leave the stored campaign untouched.
		prev := *c
		if err := s.Simulator.Start(ctx, c); err != nil {
			return nil, startError(err)
		}
		if err := s.CampaignRepo.Update(ctx, c); err != nil {
			s.Simulator.Cancel(c.ID)
			if rerr := s.CampaignRepo.UpdateStatus(ctx, c.ID, prev.Status, prev.Progress); rerr != nil {
				slog.ErrorContext(ctx, "restore status after failed update", "module", "campaign", "operation", "update",
					"campaign_id", c.ID, "error", rerr)
			}
			return nil, updateError(err)
		}
	default:
		s.Simulator.Cancel(c.ID)
		if err := s.moveStatus(ctx, c.ID, to); err != nil {
			return nil, updateError(err)
		}
		if err := s.CampaignRepo.Update(ctx, c); err != nil {
			return nil, updateError(err)
		}
	}

	slog.InfoContext(ctx, "campaign updated", "module", "campaign", "operation", "update",
		"campaign_id", c.ID, "user_id", userID, "from", from, "to", c.Status)
	publishEvent(s.Queue, userID, c.ID, model.EventCampaignUpdated, model.CampaignUpdatedMessage{
		Type:     model.EventCampaignUpdated,
		Campaign: c,
	})
	return c, nil
}

// DeleteCampaign removes the campaign and stops its run. Its leads are kept.
func (s *CampaignService) DeleteCampaign(ctx context.Context, userID string, id int) error {
	c, err := s.GetCampaign(ctx, userID, id)
	if err != nil {
		return err
	}
	s.Simulator.Cancel(c.ID)
	if err := s.CampaignRepo.Delete(ctx, c.ID); err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return err
		}
		return appErrors.Internal("delete campaign", err)
	}
	slog.InfoContext(ctx, "campaign deleted", "module", "campaign", "operation", "delete", "campaign_id", c.ID, "user_id", userID)
	return nil
}

// StartCampaign begins a simulated run. Starting a campaign with an active run
// is a conflict; a campaign left at running without one is started again.
func (s *CampaignService) StartCampaign(ctx context.Context, userID string, id int) (*model.Campaign, error) {
	c, err := s.GetCampaign(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.Simulator.Start(ctx, c); err != nil {
		return nil, startError(err)
	}
	return c, nil
}

// ListEvents returns the persisted event log of a campaign, newest first.
func (s *CampaignService) ListEvents(ctx context.Context, userID string, id, limit int) ([]*model.CampaignEvent, error) {
	if _, err := s.GetCampaign(ctx, userID, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultEventPage
	}
	if limit > maxEventPage {
		limit = maxEventPage
	}
	events, err := s.EventRepo.ListByCampaign(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Internal("list campaign events", err)
	}
	return events, nil
}

// moveStatus writes a status set by hand. Progress follows the new status:
// draft resets it, completed fills it, failed keeps what the run reached.
func (s *CampaignService) moveStatus(ctx context.Context, id int, to model.CampaignStatus) error {
	progress := 0
	switch to {
	case model.StatusCompleted:
		progress = 100
	case model.StatusFailed:
		cur, err := s.CampaignRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		progress = cur.Progress
	}
	return s.CampaignRepo.UpdateStatus(ctx, id, to, progress)
}

func updateError(err error) error {
	if appErrors.KindOf(err) == appErrors.KindNotFound {
		return err
	}
	return appErrors.Internal("update campaign", err)
}

func startError(err error) error {
	switch appErrors.KindOf(err) {
	case appErrors.KindConflict, appErrors.KindNotFound:
		return err
	}
	return appErrors.Internal("start campaign", err)
}

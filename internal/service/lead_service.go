package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/repository"
)

type LeadService struct {
	LeadRepo     repository.LeadRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
}

// LeadInput carries the fields of a lead. On create, nil means the zero value;
// on update, nil leaves the field unchanged.
type LeadInput struct {
	Name          *string              `json:"name"`
	Category      *string              `json:"category"`
	Phone         *string              `json:"phone"`
	Email         *string              `json:"email"`
	Website       *string              `json:"website"`
	Address       *string              `json:"address"`
	City          *string              `json:"city"`
	State         *string              `json:"state"`
	ZipCode       *string              `json:"zipCode"`
	Rating        *float64             `json:"rating"`
	ReviewCount   *int                 `json:"reviewCount"`
	IsValidated   *bool                `json:"isValidated"`
	IsDuplicate   *bool                `json:"isDuplicate"`
	Notes         *string              `json:"notes"`
	Tags          []string             `json:"tags"`
	ContactStatus *model.ContactStatus `json:"contactStatus"`
}

func (in LeadInput) apply(l *model.Lead) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&l.Name, in.Name)
	setString(&l.Category, in.Category)
	setString(&l.Phone, in.Phone)
	setString(&l.Email, in.Email)
	setString(&l.Website, in.Website)
	setString(&l.Address, in.Address)
	setString(&l.City, in.City)
	setString(&l.State, in.State)
	setString(&l.ZipCode, in.ZipCode)
	setString(&l.Notes, in.Notes)
	if in.Rating != nil {
		l.Rating = in.Rating
	}
	if in.ReviewCount != nil {
		l.ReviewCount = *in.ReviewCount
	}
	if in.IsValidated != nil {
		l.IsValidated = *in.IsValidated
	}
	if in.IsDuplicate != nil {
		l.IsDuplicate = *in.IsDuplicate
	}
	if in.Tags != nil {
		l.Tags = in.Tags
	}
	if in.ContactStatus != nil {
		l.ContactStatus = *in.ContactStatus
	}
}

func validateLead(l *model.Lead) error {
	switch {
	case l.Name == "":
		return appErrors.Validation("name is required")
	case len(l.Name) > maxNameLength:
		return appErrors.Validation("name must be at most %d characters", maxNameLength)
	case l.Rating != nil && (*l.Rating < 0 || *l.Rating > 5):
		return appErrors.Validation("rating must be between 0 and 5")
	case l.ReviewCount < 0:
		return appErrors.Validation("reviewCount must not be negative")
	case !l.ContactStatus.Valid():
		return appErrors.Validation("invalid contactStatus %q", l.ContactStatus)
	}
	return nil
}

// ListLeads returns every lead of every campaign userID owns.
func (s *LeadService) ListLeads(ctx context.Context, userID string) ([]*model.Lead, error) {
	leads, err := s.LeadRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal("list leads", err)
	}
	return leads, nil
}

func (s *LeadService) ListCampaignLeads(ctx context.Context, userID string, campaignID int) ([]*model.Lead, error) {
	if _, err := s.ownedCampaign(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	leads, err := s.LeadRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, appErrors.Internal("list campaign leads", err)
	}
	return leads, nil
}

func (s *LeadService) CreateLead(ctx context.Context, userID string, campaignID int, in LeadInput) (*model.Lead, error) {
	c, err := s.ownedCampaign(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	l := &model.Lead{
		CampaignID:    c.ID,
		UserID:        c.UserID,
		Category:      c.TargetCategory,
		City:          c.Location,
		Tags:          []string{},
		ContactStatus: model.ContactNotContacted,
	}
	in.apply(l)
	if err := validateLead(l); err != nil {
		return nil, err
	}
	if err := s.LeadRepo.Create(ctx, l); err != nil {
		return nil, appErrors.Internal("create lead", err)
	}
	return l, nil
}

// GetLead returns a lead whose campaign userID owns. A lead whose campaign
// was deleted stays readable by the user recorded on it.
func (s *LeadService) GetLead(ctx context.Context, userID string, id int) (*model.Lead, error) {
	l, err := s.LeadRepo.GetByID(ctx, id)
	if err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, err
		}
		return nil, appErrors.Internal("get lead", err)
	}
	c, err := s.CampaignRepo.GetByID(ctx, l.CampaignID)
	switch {
	case appErrors.KindOf(err) == appErrors.KindNotFound:
		if l.UserID != userID {
			return nil, appErrors.NewLeadNotFound(id)
		}
		return l, nil
	case err != nil:
		return nil, appErrors.Internal("get lead campaign", err)
	case c.UserID != userID:
		return nil, appErrors.NewLeadNotFound(id)
	}
	return l, nil
}

func (s *LeadService) UpdateLead(ctx context.Context, userID string, id int, in LeadInput) (*model.Lead, error) {
	l, err := s.GetLead(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(l)
	if err := validateLead(l); err != nil {
		return nil, err
	}
	if err := s.LeadRepo.Update(ctx, l); err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, err
		}
		return nil, appErrors.Internal("update lead", err)
	}
	return l, nil
}

var csvHeader = []string{
	"id", "name", "category", "phone", "email", "website", "address", "city", "state", "zipCode",
	"rating", "reviewCount", "isValidated", "isDuplicate", "contactStatus", "tags", "notes", "createdAt",
}

// ExportCampaignLeads writes the leads of a campaign as CSV to w.
func (s *LeadService) ExportCampaignLeads(ctx context.Context, userID string, campaignID int, w io.Writer) error {
	leads, err := s.ListCampaignLeads(ctx, userID, campaignID)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range leads {
		rating := ""
		if l.Rating != nil {
			rating = strconv.FormatFloat(*l.Rating, 'f', 1, 64)
		}
		record := []string{
			strconv.Itoa(l.ID), l.Name, l.Category, l.Phone, l.Email, l.Website, l.Address, l.City, l.State, l.ZipCode,
			rating, strconv.Itoa(l.ReviewCount), strconv.FormatBool(l.IsValidated), strconv.FormatBool(l.IsDuplicate),
			string(l.ContactStatus), strings.Join(l.Tags, ";"), l.Notes, l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *LeadService) ownedCampaign(ctx context.Context, userID string, campaignID int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, err
		}
		return nil, appErrors.Internal("get campaign", err)
	}
	if c.UserID != userID {
		return nil, appErrors.NewCampaignNotFound(campaignID)
	}
	return c, nil
}

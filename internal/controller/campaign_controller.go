// internal/controller/campaign_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/unclebandit/leadgen-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "create_campaign", err)
		return
	}
	var body service.CreateCampaignInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, "create_campaign", err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), uid, body)
	if err != nil {
		writeError(w, r, "create_campaign", err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_campaigns", err)
		return
	}
	campaigns, err := c.CampaignService.ListCampaigns(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_campaigns", err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "get_campaign", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "get_campaign", err)
		return
	}

	campaign, err := c.CampaignService.GetCampaign(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, "get_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "update_campaign", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "update_campaign", err)
		return
	}
	var body service.UpdateCampaignInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, "update_campaign", err)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), uid, id, body)
	if err != nil {
		writeError(w, r, "update_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "delete_campaign", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "delete_campaign", err)
		return
	}
	if err := c.CampaignService.DeleteCampaign(r.Context(), uid, id); err != nil {
		writeError(w, r, "delete_campaign", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartCampaign kicks off a simulated scrape and returns the campaign in its running state.
func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "start_campaign", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "start_campaign", err)
		return
	}

	campaign, err := c.CampaignService.StartCampaign(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, "start_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Campaign started",
		"campaign": campaign,
	})
}

func (c *CampaignController) ListEvents(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_campaign_events", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "list_campaign_events", err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := c.CampaignService.ListEvents(r.Context(), uid, id, limit)
	if err != nil {
		writeError(w, r, "list_campaign_events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

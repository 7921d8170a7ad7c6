package controller

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/unclebandit/leadgen-backend/internal/service"
)

type LeadController struct {
	LeadService *service.LeadService
}

func (c *LeadController) ListLeads(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_leads", err)
		return
	}
	leads, err := c.LeadService.ListLeads(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_leads", err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (c *LeadController) ListCampaignLeads(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_campaign_leads", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "list_campaign_leads", err)
		return
	}
	leads, err := c.LeadService.ListCampaignLeads(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, "list_campaign_leads", err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (c *LeadController) CreateLead(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "create_lead", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "create_lead", err)
		return
	}
	var body service.LeadInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, "create_lead", err)
		return
	}
	lead, err := c.LeadService.CreateLead(r.Context(), uid, id, body)
	if err != nil {
		writeError(w, r, "create_lead", err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (c *LeadController) GetLead(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "get_lead", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "get_lead", err)
		return
	}
	lead, err := c.LeadService.GetLead(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, "get_lead", err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (c *LeadController) UpdateLead(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "update_lead", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "update_lead", err)
		return
	}
	var body service.LeadInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, "update_lead", err)
		return
	}
	lead, err := c.LeadService.UpdateLead(r.Context(), uid, id, body)
	if err != nil {
		writeError(w, r, "update_lead", err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// ExportCampaignLeads answers with the campaign's leads as a CSV attachment.
func (c *LeadController) ExportCampaignLeads(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "export_leads", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "export_leads", err)
		return
	}

	var buf bytes.Buffer
	if err := c.LeadService.ExportCampaignLeads(r.Context(), uid, id, &buf); err != nil {
		writeError(w, r, "export_leads", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="campaign-%d-leads.csv"`, id))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

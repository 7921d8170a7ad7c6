package model_test

import (
	"testing"

	"github.com/unclebandit/leadgen-backend/internal/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.CampaignStatus
		want     bool
	}{
		{model.StatusDraft, model.StatusRunning, true},
		{model.StatusDraft, model.StatusCompleted, false},
		{model.StatusDraft, model.StatusFailed, false},
		{model.StatusDraft, model.StatusDraft, true},
		{model.StatusRunning, model.StatusRunning, false},
		{model.StatusRunning, model.StatusCompleted, true},
		{model.StatusRunning, model.StatusFailed, true},
		{model.StatusRunning, model.StatusDraft, true},
		{model.StatusCompleted, model.StatusRunning, true},
		{model.StatusCompleted, model.StatusFailed, false},
		{model.StatusFailed, model.StatusRunning, true},
		{model.StatusFailed, model.StatusCompleted, false},
		{model.StatusDraft, model.CampaignStatus("paused"), false},
	}
	for _, tc := range cases {
		if got := model.CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestEnumValidation(t *testing.T) {
	if !model.ModeThorough.Valid() || model.ScrapingMode("turbo").Valid() {
		t.Error("scraping mode validation is wrong")
	}
	if !model.ContactInterested.Valid() || model.ContactStatus("maybe").Valid() {
		t.Error("contact status validation is wrong")
	}
}

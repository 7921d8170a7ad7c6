package controller

import (
	"net/http"

	"github.com/unclebandit/leadgen-backend/internal/service"
)

type StatsController struct {
	StatsService *service.StatsService
}

func (c *StatsController) GetStats(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "get_stats", err)
		return
	}
	stats, err := c.StatsService.GetStats(r.Context(), uid)
	if err != nil {
		writeError(w, r, "get_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

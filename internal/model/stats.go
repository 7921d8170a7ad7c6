// internal/model/stats.go
package model

// Stats is the dashboard summary for one user.
type Stats struct {
	TotalCampaigns     int     `json:"totalCampaigns"`
	RunningCampaigns   int     `json:"runningCampaigns"`
	CompletedCampaigns int     `json:"completedCampaigns"`
	TotalLeads         int     `json:"totalLeads"`
	ValidatedLeads     int     `json:"validatedLeads"`
	ContactedLeads     int     `json:"contactedLeads"`
	AverageRating      float64 `json:"averageRating"`
	ValidationRate     float64 `json:"validationRate"`
}

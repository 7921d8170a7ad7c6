// internal/service/template_service.go
package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/unclebandit/leadgen-backend/internal/model"
)

// RenderTemplate replaces each {key} in template with data[key]. Empty values render as "N/A".
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "N/A"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// randSource is the subset of *rand.Rand the lead generator needs.
type randSource interface {
	IntN(n int) int
	Float64() float64
}

const leadNameTemplate = "{prefix} {category} {suffix}"

var (
	namePrefixes = []string{"Premier", "Golden", "Summit", "Bright", "Metro", "Evergreen", "Blue Sky", "Main Street", "Riverside", "Pioneer"}
	nameSuffixes = []string{"Co.", "Group", "Services", "& Sons", "Studio", "Partners", "Center", "Shop"}
	streets      = []string{"Main St", "Oak Ave", "Maple Dr", "Elm St", "Market St", "Park Blvd", "Lake Rd"}
)

// validationRate is the share of generated leads marked validated.
const validationRate = 0.7

// generateLead fabricates one plausible business lead for campaign c.
func generateLead(r randSource, c *model.Campaign) *model.Lead {
	name := RenderTemplate(leadNameTemplate, map[string]string{
		"prefix":   namePrefixes[r.IntN(len(namePrefixes))],
		"category": c.TargetCategory,
		"suffix":   nameSuffixes[r.IntN(len(nameSuffixes))],
	})
	slug := slugify(name)
	rating := math.Round((3+r.Float64()*2)*10) / 10

	return &model.Lead{
		CampaignID:    c.ID,
		UserID:        c.UserID,
		Name:          name,
		Category:      c.TargetCategory,
		Phone:         fmt.Sprintf("(555) %03d-%04d", r.IntN(1000), r.IntN(10000)),
		Email:         "info@" + slug + ".example.com",
		Website:       "https://www." + slug + ".example.com",
		Address:       fmt.Sprintf("%d %s", 100+r.IntN(9900), streets[r.IntN(len(streets))]),
		City:          c.Location,
		Rating:        &rating,
		ReviewCount:   r.IntN(500),
		IsValidated:   r.Float64() < validationRate,
		Tags:          []string{},
		ContactStatus: model.ContactNotContacted,
	}
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// internal/model/lead.go
package model

import "time"

type ContactStatus string

const (
	ContactNotContacted  ContactStatus = "not_contacted"
	ContactContacted     ContactStatus = "contacted"
	ContactInterested    ContactStatus = "interested"
	ContactNotInterested ContactStatus = "not_interested"
)

func (c ContactStatus) Valid() bool {
	switch c {
	case ContactNotContacted, ContactContacted, ContactInterested, ContactNotInterested:
		return true
	}
	return false
}

type Lead struct {
	ID            int           `db:"id" json:"id"`
	CampaignID    int           `db:"campaign_id" json:"campaignId"`
	UserID        string        `db:"user_id" json:"userId"`
	Name          string        `db:"name" json:"name"`
	Category      string        `db:"category" json:"category"`
	Phone         string        `db:"phone" json:"phone"`
	Email         string        `db:"email" json:"email"`
	Website       string        `db:"website" json:"website"`
	Address       string        `db:"address" json:"address"`
	City          string        `db:"city" json:"city"`
	State         string        `db:"state" json:"state"`
	ZipCode       string        `db:"zip_code" json:"zipCode"`
	Rating        *float64      `db:"rating" json:"rating"`
	ReviewCount   int           `db:"review_count" json:"reviewCount"`
	IsValidated   bool          `db:"is_validated" json:"isValidated"`
	IsDuplicate   bool          `db:"is_duplicate" json:"isDuplicate"`
	Notes         string        `db:"notes" json:"notes"`
	Tags          []string      `db:"tags" json:"tags"`
	ContactStatus ContactStatus `db:"contact_status" json:"contactStatus"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
)

type LeadRepositoryInterface interface {
	Create(ctx context.Context, l *model.Lead) error
	GetByID(ctx context.Context, id int) (*model.Lead, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Lead, error)
	ListByCampaign(ctx context.Context, campaignID int) ([]*model.Lead, error)
	Update(ctx context.Context, l *model.Lead) error
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `l.id, l.campaign_id, l.user_id, l.name, l.category, l.phone, l.email, l.website, l.address, l.city,
	l.state, l.zip_code, l.rating, l.review_count, l.is_validated, l.is_duplicate, l.notes, l.tags,
	l.contact_status, l.created_at, l.updated_at`

func scanLead(row rowScanner) (*model.Lead, error) {
	var l model.Lead
	var rating sql.NullFloat64
	err := row.Scan(&l.ID, &l.CampaignID, &l.UserID, &l.Name, &l.Category, &l.Phone, &l.Email, &l.Website, &l.Address, &l.City,
		&l.State, &l.ZipCode, &rating, &l.ReviewCount, &l.IsValidated, &l.IsDuplicate, &l.Notes, pq.Array(&l.Tags),
		&l.ContactStatus, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		l.Rating = &rating.Float64
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return &l, nil
}

func (r *LeadRepository) Create(ctx context.Context, l *model.Lead) error {
	if l.ContactStatus == "" {
		l.ContactStatus = model.ContactNotContacted
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	query := `
		INSERT INTO leads (campaign_id, user_id, name, category, phone, email, website, address, city, state, zip_code,
			rating, review_count, is_validated, is_duplicate, notes, tags, contact_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		l.CampaignID, l.UserID, l.Name, l.Category, l.Phone, l.Email, l.Website, l.Address, l.City, l.State, l.ZipCode,
		l.Rating, l.ReviewCount, l.IsValidated, l.IsDuplicate, l.Notes, pq.Array(l.Tags), l.ContactStatus,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *LeadRepository) GetByID(ctx context.Context, id int) (*model.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads l WHERE l.id=$1`, id)
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewLeadNotFound(id)
		}
		return nil, err
	}
	return l, nil
}

// ListByUser returns every lead whose campaign belongs to userID.
func (r *LeadRepository) ListByUser(ctx context.Context, userID string) ([]*model.Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads l
		INNER JOIN campaigns c ON c.id = l.campaign_id
		WHERE c.user_id=$1
		ORDER BY l.created_at DESC, l.id DESC`
	return r.list(ctx, query, userID)
}

func (r *LeadRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads l WHERE l.campaign_id=$1 ORDER BY l.created_at DESC, l.id DESC`
	return r.list(ctx, query, campaignID)
}

func (r *LeadRepository) list(ctx context.Context, query string, args ...any) ([]*model.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []*model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Update(ctx context.Context, l *model.Lead) error {
	query := `
		UPDATE leads
		SET name=$1, category=$2, phone=$3, email=$4, website=$5, address=$6, city=$7, state=$8, zip_code=$9,
			rating=$10, review_count=$11, is_validated=$12, is_duplicate=$13, notes=$14, tags=$15,
			contact_status=$16, updated_at=NOW()
		WHERE id=$17
		RETURNING updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		l.Name, l.Category, l.Phone, l.Email, l.Website, l.Address, l.City, l.State, l.ZipCode,
		l.Rating, l.ReviewCount, l.IsValidated, l.IsDuplicate, l.Notes, pq.Array(l.Tags), l.ContactStatus, l.ID,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewLeadNotFound(l.ID)
	}
	return err
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)

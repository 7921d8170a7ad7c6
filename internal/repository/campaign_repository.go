package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Campaign, error)
	Update(ctx context.Context, c *model.Campaign) error
	UpdateProgress(ctx context.Context, id, progress, totalPages, leadsFound int) error
	UpdateStatus(ctx context.Context, id int, status model.CampaignStatus, progress int) error
	Delete(ctx context.Context, id int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, name, target_category, location, radius, scraping_mode,
	page_limit, delay, status, progress, total_pages, leads_found, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.TargetCategory, &c.Location, &c.Radius, &c.ScrapingMode,
		&c.PageLimit, &c.Delay, &c.Status, &c.Progress, &c.TotalPages, &c.LeadsFound, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	query := `
		INSERT INTO campaigns (user_id, name, target_category, location, radius, scraping_mode, page_limit, delay, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.TargetCategory, c.Location, c.Radius, c.ScrapingMode, c.PageLimit, c.Delay, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListByUser(ctx context.Context, userID string) ([]*model.Campaign, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// Update writes the user-editable fields. Status and counters belong to
// UpdateStatus and UpdateProgress; their current values are read back into c.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	query := `
		UPDATE campaigns
		SET name=$1, target_category=$2, location=$3, radius=$4, scraping_mode=$5,
			page_limit=$6, delay=$7, updated_at=NOW()
		WHERE id=$8
		RETURNING status, progress, total_pages, leads_found, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		c.Name, c.TargetCategory, c.Location, c.Radius, c.ScrapingMode, c.PageLimit, c.Delay, c.ID,
	).Scan(&c.Status, &c.Progress, &c.TotalPages, &c.LeadsFound, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return err
}

func (r *CampaignRepository) UpdateProgress(ctx context.Context, id, progress, totalPages, leadsFound int) error {
	query := `UPDATE campaigns SET progress=$1, total_pages=$2, leads_found=$3, updated_at=NOW() WHERE id=$4`
	return execAffecting(ctx, r.DB, appErrors.NewCampaignNotFound(id), query, progress, totalPages, leadsFound, id)
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int, status model.CampaignStatus, progress int) error {
	query := `UPDATE campaigns SET status=$1, progress=$2, updated_at=NOW() WHERE id=$3`
	return execAffecting(ctx, r.DB, appErrors.NewCampaignNotFound(id), query, status, progress, id)
}

func (r *CampaignRepository) Delete(ctx context.Context, id int) error {
	return execAffecting(ctx, r.DB, appErrors.NewCampaignNotFound(id), `DELETE FROM campaigns WHERE id=$1`, id)
}

// execAffecting runs a single-row statement and returns notFound when no row matched.
func execAffecting(ctx context.Context, db *sql.DB, notFound error, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
)

// UserRepositoryInterface defines the user operations used by the auth service.
type UserRepositoryInterface interface {
	Upsert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

// Upsert inserts the user or refreshes the identity fields of an existing one.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET email=EXCLUDED.email, first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
			profile_image_url=EXCLUDED.profile_image_url, updated_at=NOW()
		RETURNING created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, COALESCE(email, ''), first_name, last_name, profile_image_url, created_at, updated_at
		FROM users WHERE id=$1
	`
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("user", id)
		}
		return nil, err
	}
	return &u, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

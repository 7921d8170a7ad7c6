package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
)

type FileRepositoryInterface interface {
	Create(ctx context.Context, f *model.File) error
	ListByUser(ctx context.Context, userID string) ([]*model.File, error)
	GetByID(ctx context.Context, id int) (*model.File, error)
}

type FileRepository struct {
	DB *sql.DB
}

func (r *FileRepository) Create(ctx context.Context, f *model.File) error {
	query := `
		INSERT INTO files (user_id, original_name, mime_type, size, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, f.UserID, f.OriginalName, f.MimeType, f.Size, f.StoragePath).
		Scan(&f.ID, &f.CreatedAt)
}

func (r *FileRepository) ListByUser(ctx context.Context, userID string) ([]*model.File, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, original_name, mime_type, size, storage_path, created_at
		FROM files WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []*model.File{}
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.UserID, &f.OriginalName, &f.MimeType, &f.Size, &f.StoragePath, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (r *FileRepository) GetByID(ctx context.Context, id int) (*model.File, error) {
	var f model.File
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, original_name, mime_type, size, storage_path, created_at
		FROM files WHERE id=$1`, id).
		Scan(&f.ID, &f.UserID, &f.OriginalName, &f.MimeType, &f.Size, &f.StoragePath, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewFileNotFound(id)
		}
		return nil, err
	}
	return &f, nil
}

var _ FileRepositoryInterface = (*FileRepository)(nil)

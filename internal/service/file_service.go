package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/repository"
	"github.com/unclebandit/leadgen-backend/internal/storage"
)

type FileService struct {
	FileRepo repository.FileRepositoryInterface
	Store    storage.BlobStore
}

// Upload stores the blob under a fresh key and records its metadata for userID.
func (s *FileService) Upload(ctx context.Context, userID, originalName, contentType string, size int64, r io.Reader) (*model.File, error) {
	name := filepath.Base(strings.TrimSpace(originalName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, appErrors.Validation("file name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.BuildKey(userID, name)
	if err := s.Store.Put(ctx, key, r, size, contentType); err != nil {
		if appErrors.KindOf(err) == appErrors.KindValidation {
			return nil, err
		}
		return nil, appErrors.Internal("store file", err)
	}

	f := &model.File{
		UserID:       userID,
		OriginalName: name,
		MimeType:     contentType,
		Size:         size,
		StoragePath:  key,
	}
	if err := s.FileRepo.Create(ctx, f); err != nil {
		slog.ErrorContext(ctx, "file stored without metadata", "module", "files", "operation", "upload", "key", key, "error", err)
		return nil, appErrors.Internal("record file", err)
	}
	slog.InfoContext(ctx, "file uploaded", "module", "files", "operation", "upload", "file_id", f.ID, "user_id", userID, "size", size)
	return f, nil
}

func (s *FileService) ListFiles(ctx context.Context, userID string) ([]*model.File, error) {
	files, err := s.FileRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal("list files", err)
	}
	return files, nil
}

// Open returns the metadata and content of a file owned by userID. The caller closes the reader.
func (s *FileService) Open(ctx context.Context, userID string, id int) (*model.File, io.ReadCloser, error) {
	f, err := s.FileRepo.GetByID(ctx, id)
	if err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, nil, err
		}
		return nil, nil, appErrors.Internal("get file", err)
	}
	if f.UserID != userID {
		return nil, nil, appErrors.NewFileNotFound(id)
	}
	rc, err := s.Store.Open(ctx, f.StoragePath)
	if err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, nil, appErrors.NewFileNotFound(id)
		}
		return nil, nil, appErrors.Internal("open file", err)
	}
	return f, rc, nil
}

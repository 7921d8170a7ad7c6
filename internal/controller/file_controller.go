package controller

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/service"
)

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 8 << 20

type FileController struct {
	FileService    *service.FileService
	MaxUploadBytes int64
}

// Upload accepts a multipart form with a single "file" part.
func (c *FileController) Upload(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "upload_file", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, "upload_file", appErrors.Validation("file exceeds %d bytes", c.MaxUploadBytes))
			return
		}
		writeError(w, r, "upload_file", appErrors.Validation("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "upload_file", appErrors.Validation("missing file"))
		return
	}
	defer part.Close()
	if header.Size > c.MaxUploadBytes {
		writeError(w, r, "upload_file", appErrors.Validation("file exceeds %d bytes", c.MaxUploadBytes))
		return
	}

	f, err := c.FileService.Upload(r.Context(), uid, header.Filename, header.Header.Get("Content-Type"), header.Size, part)
	if err != nil {
		writeError(w, r, "upload_file", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (c *FileController) ListFiles(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "list_files", err)
		return
	}
	files, err := c.FileService.ListFiles(r.Context(), uid)
	if err != nil {
		writeError(w, r, "list_files", err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (c *FileController) Download(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, "download_file", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "download_file", err)
		return
	}

	f, rc, err := c.FileService.Open(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, "download_file", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalName}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.WarnContext(r.Context(), "download interrupted", "module", "http", "operation", "download_file", "file_id", f.ID, "error", err)
	}
}

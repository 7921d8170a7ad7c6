// internal/model/file.go
package model

import "time"

type File struct {
	ID           int       `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	StoragePath  string    `db:"storage_path" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

package models

import (
	"fmt"
	"time"
)

// Document is the metadata record for a file attached to a thesis. The blob
// bytes live on disk under the generated storage path; row and blob form a
// single lifecycle unit.
type Document struct {
	ID           string    `db:"id" json:"id"`
	ThesisID     string    `db:"thesis_id" json:"thesis_id"`
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by"`
	Filename     string    `db:"filename" json:"filename"`
	OriginalName string    `db:"original_name" json:"original_name"`
	Path         string    `db:"path" json:"-"`
	Size         int64     `db:"size" json:"size"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	Extension    string    `db:"extension" json:"extension"`
	Description  string    `db:"description" json:"description"`
	Version      int       `db:"version" json:"version"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FormattedSize renders the byte size in human-readable form.
func (d *Document) FormattedSize() string {
	size := float64(d.Size)
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if size == float64(int64(size)) {
		return fmt.Sprintf("%d %s", int64(size), units[i])
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

// DocumentDetail carries a document with its uploader's name.
type DocumentDetail struct {
	Document
	UploaderName string `db:"uploader_name" json:"uploader_name"`
}

package models

import "time"

// ExportStatus tracks a queued export through its lifecycle.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is an asynchronous render of a session grid to a downloadable
// file. Jobs live as long as their session's export files do; the signed
// download token is the only way to retrieve the file.
type ExportJob struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Format      string       `json:"format"`
	Status      ExportStatus `json:"status"`
	FilePath    string       `json:"-"`
	DownloadURL string       `json:"download_url,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states reported by the backend.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether polling must stop once this status is observed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// ParseJobStatus normalizes a status string from the wire.
func ParseJobStatus(raw string) JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// Job is a read-only snapshot of a wallpaper generation job.
type Job struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status,omitempty"`
	FinalURL  string     `json:"final_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Wallpaper is a gallery entry for a completed job.
type Wallpaper struct {
	PreviewURL string `json:"preview_url"`
	FinalURL   string `json:"final_url"`
}

// Preview returns the image shown in the gallery grid. The backend may omit
// preview_url, in which case the final asset doubles as the preview.
func (w Wallpaper) Preview() string {
	if p := strings.TrimSpace(w.PreviewURL); p != "" {
		return p
	}
	return strings.TrimSpace(w.FinalURL)
}

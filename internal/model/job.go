package model

import "time"

type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusRunning JobStatus = "running"
	StatusSuccess JobStatus = "success"
	StatusFailed  JobStatus = "failed"
)

// JobFull is the stream name used for a job covering every stream.
const JobFull = "full"

// Job is a queued sync request. Stream is either JobFull or a single stream name.
type Job struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Stream    string    `gorm:"size:64;not null" json:"stream"`
	Status    JobStatus `gorm:"size:20;not null;index:idx_job_status" json:"status"`
	Result    string    `gorm:"type:text" json:"result,omitempty"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

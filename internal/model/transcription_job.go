package model

import "time"

// Transcription job states as tracked locally.
const (
	JobSubmitted = "SUBMITTED"
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
	JobTimedOut  = "TIMED_OUT"
)

type TranscriptionJob struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	JobName       string     `gorm:"size:200;not null;uniqueIndex" json:"job_name"`
	Subject       string     `gorm:"size:200;not null;index:idx_job_video" json:"subject"`
	Chapter       string     `gorm:"size:200;not null;index:idx_job_video" json:"chapter"`
	Video         string     `gorm:"size:255;not null;index:idx_job_video" json:"video"`
	MediaURI      string     `gorm:"size:1024;not null" json:"media_uri"`
	State         string     `gorm:"size:16;not null;index" json:"state"`
	FailureReason string     `gorm:"type:text" json:"failure_reason,omitempty"`
	TranscriptKey string     `gorm:"size:1024" json:"transcript_key,omitempty"`
	RequestedBy   uint       `gorm:"index" json:"requested_by"`
	Polls         int        `gorm:"not null;default:0" json:"polls"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Terminal reports whether the job can no longer change without a refresh.
func (j *TranscriptionJob) Terminal() bool {
	return j.State == JobCompleted || j.State == JobFailed
}

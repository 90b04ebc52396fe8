package model

import (
	"time"

	"task-market.com/task-market/internal/constants"
)

// Attachment holds storage metadata only; the binary lives in external
// object storage.
type Attachment struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// Submission versions are strictly increasing per task starting at 1; the
// composite unique index is the backstop against concurrent duplicates.
type Submission struct {
	ID           string                     `gorm:"primaryKey;size:36" json:"id"`
	TaskID       string                     `gorm:"size:36;not null;uniqueIndex:idx_submission_task_version" json:"task_id"`
	FreelancerID string                     `gorm:"size:36;not null;index" json:"freelancer_id"`
	Version      int                        `gorm:"not null;uniqueIndex:idx_submission_task_version" json:"version"`
	Message      string                     `json:"message"`
	RevisionNote string                     `json:"revision_note,omitempty"`
	Attachments  []Attachment               `gorm:"serializer:json" json:"attachments"`
	Status       constants.SubmissionStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

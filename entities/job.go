package entities

import (
	"github.com/google/uuid"
	"scene-worker/constant"
	"time"
)

// Job is the audit row of one scheduled run.
type Job struct {
	ID         uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	JobType    constant.JobType   `json:"job_type" gorm:"type:varchar(32);not null"`
	Status     constant.JobStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_jobs_status"`
	Error      string             `json:"error" gorm:"type:text"`
	Folders    int                `json:"folders"`
	Detected   int                `json:"detected"`
	Split      int                `json:"split"`
	Archived   int                `json:"archived"`
	Reduced    int                `json:"reduced"`
	Failed     int                `json:"failed"`
	StartedAt  *time.Time         `json:"started_at" gorm:"type:timestamptz"`
	FinishedAt *time.Time         `json:"finished_at" gorm:"type:timestamptz"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/joshu-sajeev/goscheduler/internal/config"
)

// ScheduleDTO carries the scheduling fields shared by every create request.
type ScheduleDTO struct {
	ScheduleType  config.ScheduleType `json:"schedule_type" form:"schedule_type"`
	ScheduledTime *time.Time          `json:"scheduled_time" form:"scheduled_time" time_format:"2006-01-02T15:04:05Z07:00"`
	Frequency     *config.Frequency   `json:"frequency" form:"frequency"`
}

type JobCreateDTO struct {
	JobType    config.JobType  `json:"job_type" validate:"required"`
	Parameters json.RawMessage `json:"parameters"`
	Priority   *int            `json:"priority" validate:"omitempty,gte=0,lte=10"`
	MaxRetries *int            `json:"max_retries" validate:"omitempty,gte=0,lte=20"`
	ScheduleDTO
}

type BulkJobCreateDTO struct {
	Jobs []JobCreateDTO `json:"jobs" validate:"required,min=1,max=100,dive"`
}

// JobUpdateDTO holds the fields a pending scheduled or interval job may
// change. Extra lists any other fields present in the request.
type JobUpdateDTO struct {
	ScheduleType  *config.ScheduleType `json:"schedule_type"`
	ScheduledTime *time.Time           `json:"scheduled_time"`
	Frequency     *config.Frequency    `json:"frequency"`
	Extra         []string             `json:"-"`
}

type JobFilterDTO struct {
	JobType  config.JobType   `form:"job_type"`
	Status   config.JobStatus `form:"status"`
	Page     int              `form:"page" validate:"omitempty,gte=1"`
	PageSize int              `form:"page_size" validate:"omitempty,gte=1,lte=100"`
}

type JobResponseDTO struct {
	ID            uint                `json:"id"`
	JobType       config.JobType      `json:"job_type"`
	Parameters    json.RawMessage     `json:"parameters"`
	Status        config.JobStatus    `json:"status"`
	Priority      int                 `json:"priority"`
	MaxRetries    int                 `json:"max_retries"`
	Retries       int                 `json:"retries"`
	Result        json.RawMessage     `json:"result"`
	ScheduleType  config.ScheduleType `json:"schedule_type"`
	ScheduledTime *time.Time          `json:"scheduled_time"`
	Frequency     *config.Frequency   `json:"frequency"`
	FileURL       string              `json:"file_url,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type JobListResponseDTO struct {
	Count    int64            `json:"count"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Results  []JobResponseDTO `json:"results"`
}

type JobStatsDTO struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

type JobTypeDTO struct {
	Key   config.JobType `json:"key"`
	Label string         `json:"label"`
}

// StatusEventDTO is published on every job status change.
type StatusEventDTO struct {
	ID     uint             `json:"id"`
	Status config.JobStatus `json:"status"`
	Result json.RawMessage  `json:"result"`
}

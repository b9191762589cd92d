package models

import (
	"encoding/json"
	"time"

	"github.com/joshu-sajeev/goscheduler/internal/config"
	"gorm.io/datatypes"
)

type Job struct {
	ID            uint                `gorm:"primaryKey;autoIncrement"`
	JobType       config.JobType      `gorm:"type:varchar(50);not null;index"`
	Parameters    datatypes.JSON      `gorm:"type:jsonb"`
	Status        config.JobStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority      int                 `gorm:"not null;default:5"`
	MaxRetries    int                 `gorm:"not null;default:3"`
	Retries       int                 `gorm:"not null;default:0"`
	Result        datatypes.JSON      `gorm:"type:jsonb"`
	ScheduleType  config.ScheduleType `gorm:"type:varchar(20);not null;default:'immediate'"`
	ScheduledTime *time.Time
	Frequency     *config.Frequency `gorm:"type:varchar(20)"`
	Version       int               `gorm:"not null;default:0"`
	CreatedAt     time.Time         `gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime"`
}

// Param returns a string parameter, or "" when absent or not a string.
func (j *Job) Param(key string) string {
	var params map[string]any
	if err := json.Unmarshal(j.Parameters, &params); err != nil {
		return ""
	}
	s, _ := params[key].(string)
	return s
}

// ResultMap decodes the stored result. A null result yields nil.
func (j *Job) ResultMap() map[string]any {
	if len(j.Result) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(j.Result, &out); err != nil {
		return nil
	}
	return out
}

// SetResult encodes r into the result column.
func (j *Job) SetResult(r map[string]any) {
	if r == nil {
		j.Result = nil
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"error": err.Error()})
	}
	j.Result = datatypes.JSON(b)
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type TriggerKind string

const (
	TriggerRecurring TriggerKind = "recurring"
	TriggerOneOff    TriggerKind = "one_off"
)

// Trigger is a scheduling registration owned by the dispatcher. It refers to
// its job only through its name and args, never through a foreign key.
type Trigger struct {
	ID         uint        `gorm:"primaryKey;autoIncrement"`
	Name       string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Kind       TriggerKind `gorm:"type:varchar(20);not null"`
	Task       string      `gorm:"type:varchar(100);not null"`
	Args       datatypes.JSON
	Expression string `gorm:"type:varchar(255)"`
	Timezone   string `gorm:"type:varchar(64)"`
	RunAt      *time.Time
	Enabled    bool `gorm:"not null;default:true;index"`
	NextRunAt  *time.Time `gorm:"index"`
	LastRunAt  *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

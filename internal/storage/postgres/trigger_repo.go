package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/schedule"
	"github.com/joshu-sajeev/goscheduler/internal/trigger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TriggerRepository stores triggers in the triggers table. All instants are
// written in UTC so that due comparisons hold on every driver.
type TriggerRepository struct {
	db *gorm.DB
}

func NewTriggerRepository(db *gorm.DB) *TriggerRepository {
	return &TriggerRepository{db: db}
}

var _ trigger.Store = (*TriggerRepository)(nil)

func (r *TriggerRepository) UpsertRecurring(
	ctx context.Context,
	name string,
	rule schedule.Rule,
	firstRun time.Time,
	enabled bool,
	task trigger.Task,
	args trigger.Args,
) error {
	next := firstRun.UTC()
	t := models.Trigger{
		Name:       name,
		Kind:       models.TriggerRecurring,
		Task:       string(task),
		Args:       args.JSON(),
		Expression: rule.Expression(),
		Timezone:   rule.Timezone(),
		Enabled:    enabled,
		NextRunAt:  &next,
	}
	return r.upsert(ctx, &t)
}

func (r *TriggerRepository) UpsertOneOff(
	ctx context.Context,
	name string,
	at time.Time,
	task trigger.Task,
	args trigger.Args,
	enabled bool,
) error {
	runAt := at.UTC()
	t := models.Trigger{
		Name:      name,
		Kind:      models.TriggerOneOff,
		Task:      string(task),
		Args:      args.JSON(),
		RunAt:     &runAt,
		Enabled:   enabled,
		NextRunAt: &runAt,
	}
	return r.upsert(ctx, &t)
}

func (r *TriggerRepository) upsert(ctx context.Context, t *models.Trigger) error {
	// gorm skips zero-valued fields that carry a default, so enabled=false
	// has to be listed explicitly for the insert and the conflict update.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"kind", "task", "args", "expression", "timezone", "run_at",
				"enabled", "next_run_at", "last_run_at", "updated_at",
			}),
		}).
		Select("*").
		Omit("id").
		Create(t).Error
	if err != nil {
		return errors.Wrapf(err, "upsert trigger %s", t.Name)
	}
	return nil
}

// Delete removes the named trigger. A missing trigger is not an error.
func (r *TriggerRepository) Delete(ctx context.Context, name string) error {
	if err := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Trigger{}).Error; err != nil {
		return errors.Wrapf(err, "delete trigger %s", name)
	}
	return nil
}

func (r *TriggerRepository) Enable(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Model(&models.Trigger{}).
		Where("name = ?", name).
		Update("enabled", true)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "enable trigger %s", name)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(common.ErrTriggerNotFound, "trigger %s", name)
	}
	return nil
}

func (r *TriggerRepository) Get(ctx context.Context, name string) (*models.Trigger, error) {
	var t models.Trigger
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(common.ErrTriggerNotFound, "trigger %s", name)
		}
		return nil, errors.Wrapf(err, "get trigger %s", name)
	}
	return &t, nil
}

// ClaimDue selects due triggers with FOR UPDATE SKIP LOCKED, so concurrent
// beats never claim the same row. The sqlite driver drops the
// locking clause.
func (r *TriggerRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Trigger, error) {
	var due []models.Trigger
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("enabled = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now.UTC()).
		Order("next_run_at").
		Limit(limit).
		Find(&due).Error; err != nil {
		return nil, errors.Wrap(err, "claim due triggers")
	}
	return due, nil
}

func (r *TriggerRepository) MarkFired(ctx context.Context, id uint, firedAt time.Time, next *time.Time) error {
	fired := firedAt.UTC()
	updates := map[string]any{
		"last_run_at": fired,
		"next_run_at": nil,
		"enabled":     false,
	}
	if next != nil {
		n := next.UTC()
		updates["next_run_at"] = n
		updates["enabled"] = true
	}

	if err := r.db.WithContext(ctx).Model(&models.Trigger{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return errors.Wrapf(err, "mark trigger %d fired", id)
	}
	return nil
}

func (r *TriggerRepository) InTx(ctx context.Context, fn func(trigger.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TriggerRepository{db: tx})
	})
}

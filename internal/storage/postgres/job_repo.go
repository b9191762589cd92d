package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/job"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"gorm.io/gorm"
)

const defaultPageSize = 20

type JobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db, now: time.Now}
}

var _ job.JobRepoInterface = (*JobRepository)(nil)

// Create inserts a new job record into the database. It uses the provided
// context for cancellation and timeout propagation. Returns an error if the
// database operation fails.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return errors.Wrap(err, "create job")
	}
	return nil
}

// CreateBatch inserts all jobs in one transaction; either every job is
// stored or none is.
func (r *JobRepository) CreateBatch(ctx context.Context, jobs []*models.Job) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, j := range jobs {
			if err := tx.Create(j).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "create jobs")
	}
	return nil
}

// Get retrieves a single job record by its ID. Returns the job if found,
// or ErrJobNotFound if it doesn't exist.
func (r *JobRepository) Get(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(common.ErrJobNotFound, "job %d", id)
		}
		return nil, errors.Wrap(err, "get job")
	}
	return &job, nil
}

// Save writes every mutable column of job, guarded by its version. A save
// based on an outdated read fails with ErrStaleJob and leaves the row as it
// was. On success job.Version and job.UpdatedAt reflect the stored row.
func (r *JobRepository) Save(ctx context.Context, job *models.Job) error {
	now := r.now().UTC()

	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND version = ?", job.ID, job.Version).
		Updates(map[string]any{
			"job_type":       job.JobType,
			"parameters":     job.Parameters,
			"status":         job.Status,
			"priority":       job.Priority,
			"max_retries":    job.MaxRetries,
			"retries":        job.Retries,
			"result":         job.Result,
			"schedule_type":  job.ScheduleType,
			"scheduled_time": job.ScheduledTime,
			"frequency":      job.Frequency,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     now,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "save job")
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", job.ID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "save job")
		}
		if count == 0 {
			return errors.Wrapf(common.ErrJobNotFound, "job %d", job.ID)
		}
		return errors.Wrapf(common.ErrStaleJob, "job %d at version %d", job.ID, job.Version)
	}

	job.Version++
	job.UpdatedAt = now
	return nil
}

// Delete removes the job. Deleting an unknown id returns ErrJobNotFound.
func (r *JobRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Job{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete job")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(common.ErrJobNotFound, "job %d", id)
	}
	return nil
}

// List returns one page of jobs, newest first, along with the number of
// jobs matching the filter.
func (r *JobRepository) List(ctx context.Context, filter dto.JobFilterDTO) ([]models.Job, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Job{})
	if filter.JobType != "" {
		q = q.Where("job_type = ?", filter.JobType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	// shared by the count and the page query
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count jobs")
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}

	var jobs []models.Job
	if err := q.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&jobs).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list jobs")
	}
	return jobs, total, nil
}

// CountByStatus returns the number of jobs per status. Statuses with no
// jobs are absent from the map.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[config.JobStatus]int64, error) {
	var rows []struct {
		Status config.JobStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "count jobs by status")
	}

	counts := make(map[config.JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListStuckJobs returns running jobs that have not been saved for longer
// than staleDuration.
func (r *JobRepository) ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error) {
	cutoff := r.now().UTC().Add(-staleDuration)

	var jobs []models.Job
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", config.JobStatusRunning, cutoff).
		Order("updated_at").
		Find(&jobs).Error; err != nil {
		return nil, errors.Wrap(err, "list stuck jobs")
	}
	return jobs, nil
}

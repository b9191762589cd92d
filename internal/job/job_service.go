package job

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/objectstore"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 20
	maxBulkJobs     = 100
)

type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	// Now defaults to time.Now.
	Now func() time.Time
}

type JobService struct {
	repo      JobRepoInterface
	scheduler Scheduler
	files     FileLinker
	opts      Options
	logger    *zap.SugaredLogger
}

func NewJobService(repo JobRepoInterface, scheduler Scheduler, files FileLinker, opts Options, logger *zap.SugaredLogger) *JobService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &JobService{repo: repo, scheduler: scheduler, files: files, opts: opts, logger: logger}
}

var _ JobServiceInterface = (*JobService)(nil)

// CreateJob validates job creation input, applies business rules,
// persists the job and hands it to the scheduler. A job whose scheduling
// fails is removed again.
func (s *JobService) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if req.JobType == config.JobTypeUploadFile {
		return nil, common.Errf(http.StatusBadRequest, "upload_file jobs are created through /jobs/upload-file")
	}

	job, err := s.buildJob(req.JobType, req.Parameters, req.Priority, req.MaxRetries, req.ScheduleDTO)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, mapError(err, "add job to database")
	}

	if err := s.schedule(ctx, job); err != nil {
		return nil, err
	}

	resp := toResponse(job)
	return &resp, nil
}

// CreateBulk validates every definition before anything is stored; one
// invalid definition rejects the whole batch.
func (s *JobService) CreateBulk(ctx context.Context, req *dto.BulkJobCreateDTO) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}
	if len(req.Jobs) == 0 || len(req.Jobs) > maxBulkJobs {
		return nil, common.Errf(http.StatusBadRequest, "between 1 and %d jobs are required", maxBulkJobs)
	}

	jobs := make([]*models.Job, 0, len(req.Jobs))
	fields := map[string]any{}
	for i := range req.Jobs {
		def := &req.Jobs[i]
		if def.JobType == config.JobTypeUploadFile {
			fields[fmt.Sprintf("jobs[%d]", i)] = "upload_file jobs are created through /jobs/upload-file"
			continue
		}
		job, err := s.buildJob(def.JobType, def.Parameters, def.Priority, def.MaxRetries, def.ScheduleDTO)
		if err != nil {
			fields[fmt.Sprintf("jobs[%d]", i)] = describe(err)
			continue
		}
		jobs = append(jobs, job)
	}
	if len(fields) > 0 {
		return nil, common.NewAPIError(http.StatusBadRequest, "bulk validation failed", fields)
	}

	return s.createAll(ctx, jobs)
}

// SendEmail creates one send_email job per recipient.
func (s *JobService) SendEmail(ctx context.Context, req *dto.SendEmailDTO) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}
	if len(req.Recipients) == 0 {
		return nil, common.FieldError("recipients", "at least one recipient is required")
	}

	jobs := make([]*models.Job, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		params, _ := json.Marshal(dto.SendEmailPayload{
			Recipient: strings.TrimSpace(recipient),
			Subject:   req.Subject,
			Body:      req.Body,
		})
		job, err := s.buildJob(config.JobTypeSendEmail, params, req.Priority, req.MaxRetries, req.ScheduleDTO)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return s.createAll(ctx, jobs)
}

// UploadFile stores src under the upload directory and creates an
// upload_file job that moves it to the object store.
func (s *JobService) UploadFile(ctx context.Context, req *dto.UploadFileDTO, fileName string, src io.Reader) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	name := req.FileName
	if strings.TrimSpace(name) == "" {
		name = fileName
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, common.FieldError("file_name", "a file name is required")
	}

	// reject a bad schedule before touching the disk
	sched := req.ScheduleDTO
	if sched.ScheduleType == "" {
		sched.ScheduleType = config.ScheduleImmediate
	}
	if err := s.validateSchedule(&sched); err != nil {
		return nil, err
	}

	tempPath, err := s.storeUpload(name, src)
	if err != nil {
		return nil, err
	}

	params, _ := json.Marshal(dto.UploadFilePayload{FileName: name, TempPath: tempPath})
	job, err := s.buildJob(config.JobTypeUploadFile, params, req.Priority, req.MaxRetries, req.ScheduleDTO)
	if err != nil {
		removeFile(tempPath)
		return nil, err
	}

	if err := s.repo.Create(ctx, job); err != nil {
		removeFile(tempPath)
		return nil, mapError(err, "add job to database")
	}

	if err := s.schedule(ctx, job); err != nil {
		removeFile(tempPath)
		return nil, err
	}

	resp := toResponse(job)
	return &resp, nil
}

func (s *JobService) storeUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", common.Errf(http.StatusInternalServerError, "failed to prepare upload directory")
	}

	tempPath := filepath.Join(s.opts.UploadDir, uuid.NewString()+filepath.Ext(name))
	dst, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", common.Errf(http.StatusInternalServerError, "failed to store upload")
	}

	n, err := io.Copy(dst, io.LimitReader(src, s.opts.MaxUploadBytes+1))
	closeErr := dst.Close()
	if err != nil || closeErr != nil {
		removeFile(tempPath)
		return "", common.Errf(http.StatusInternalServerError, "failed to store upload")
	}
	if n > s.opts.MaxUploadBytes {
		removeFile(tempPath)
		return "", common.FieldError("file", fmt.Sprintf("file exceeds the maximum size of %d bytes", s.opts.MaxUploadBytes))
	}
	return tempPath, nil
}

// GetJobByID retrieves a job by its ID from the repository.
// It maps repository errors to appropriate API errors
// (e.g., not found, timeout, or internal failure).
func (s *JobService) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "get job")
	}

	resp := toResponse(job)
	return &resp, nil
}

// ListJobs returns one page of jobs filtered by type and status.
func (s *JobService) ListJobs(ctx context.Context, filter dto.JobFilterDTO) (*dto.JobListResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if filter.JobType != "" && !slices.Contains(config.AllowedJobTypes, filter.JobType) {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid job type", map[string]any{
			"provided": filter.JobType,
			"allowed":  config.AllowedJobTypes,
		})
	}
	if filter.Status != "" && !slices.Contains(config.AllowedStatuses, filter.Status) {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid status", map[string]any{
			"provided": filter.Status,
			"allowed":  config.AllowedStatuses,
		})
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}

	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err, "list jobs")
	}

	results := make([]dto.JobResponseDTO, len(jobs))
	for i := range jobs {
		results[i] = toResponse(&jobs[i])
	}

	return &dto.JobListResponseDTO{
		Count:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Results:  results,
	}, nil
}

// UpdateJob changes the scheduling fields of a pending scheduled or
// interval job and reschedules it when something actually changed.
func (s *JobService) UpdateJob(ctx context.Context, id uint, req *dto.JobUpdateDTO) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if len(req.Extra) > 0 {
		return nil, common.NewAPIError(http.StatusConflict,
			"only schedule_type, scheduled_time and frequency can be updated",
			map[string]any{"fields": req.Extra},
		)
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "get job")
	}

	if job.Status != config.JobStatusPending || !job.ScheduleType.Reschedulable() {
		return nil, mapError(errors.Wrapf(common.ErrInvalidState,
			"job %d is %s with schedule type %s", job.ID, job.Status, job.ScheduleType), "update job")
	}

	next := dto.ScheduleDTO{
		ScheduleType:  job.ScheduleType,
		ScheduledTime: job.ScheduledTime,
		Frequency:     job.Frequency,
	}
	if req.ScheduleType != nil {
		next.ScheduleType = *req.ScheduleType
	}
	if req.ScheduledTime != nil {
		next.ScheduledTime = req.ScheduledTime
	}
	if req.Frequency != nil {
		next.Frequency = req.Frequency
	}
	if next.ScheduleType == config.ScheduleScheduled && req.Frequency == nil {
		next.Frequency = nil
	}

	if !next.ScheduleType.Reschedulable() {
		return nil, common.FieldError("schedule_type", "must be scheduled or interval")
	}
	if err := s.validateSchedule(&next); err != nil {
		return nil, err
	}

	if !scheduleChanged(job, next) {
		resp := toResponse(job)
		return &resp, nil
	}

	prev := dto.ScheduleDTO{
		ScheduleType:  job.ScheduleType,
		ScheduledTime: job.ScheduledTime,
		Frequency:     job.Frequency,
	}
	applySchedule(job, next)

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, mapError(err, "update job")
	}

	if err := s.scheduler.Reschedule(ctx, job); err != nil {
		s.logger.Errorw("reschedule failed, restoring previous schedule", "job_id", job.ID, "error", err)
		s.restoreSchedule(context.WithoutCancel(ctx), job, prev)
		return nil, mapError(err, "reschedule job")
	}

	s.logger.Infow("job rescheduled", "job_id", job.ID, "schedule_type", job.ScheduleType)
	resp := toResponse(job)
	return &resp, nil
}

// DeleteJob cancels every pending execution of the job before removing it.
func (s *JobService) DeleteJob(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapError(err, "get job")
	}

	if err := s.scheduler.Cancel(ctx, job.ID); err != nil {
		return mapError(err, "cancel job schedule")
	}

	if err := s.repo.Delete(ctx, job.ID); err != nil {
		return mapError(err, "delete job")
	}

	if job.JobType == config.JobTypeUploadFile && job.Status == config.JobStatusPending {
		removeFile(job.Param("temp_path"))
	}

	s.logger.Infow("job deleted", "job_id", job.ID)
	return nil
}

// RetryJob resets a failed job and enqueues it immediately.
func (s *JobService) RetryJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "get job")
	}

	if job.Status != config.JobStatusFailed {
		return nil, common.Errf(http.StatusBadRequest, "Only failed jobs can be retried.")
	}

	job.Status = config.JobStatusPending
	job.Retries = 0
	job.Result = nil

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, mapError(err, "retry job")
	}

	if err := s.scheduler.RunNow(ctx, job); err != nil {
		return nil, mapError(err, "enqueue job")
	}

	resp := toResponse(job)
	return &resp, nil
}

func (s *JobService) Stats(ctx context.Context) (*dto.JobStatsDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, mapError(err, "count jobs")
	}

	stats := &dto.JobStatsDTO{
		Pending:   counts[config.JobStatusPending],
		Running:   counts[config.JobStatusRunning],
		Completed: counts[config.JobStatusCompleted],
		Failed:    counts[config.JobStatusFailed],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *JobService) JobTypes() []dto.JobTypeDTO {
	types := make([]dto.JobTypeDTO, len(config.AllowedJobTypes))
	for i, t := range config.AllowedJobTypes {
		types[i] = dto.JobTypeDTO{Key: t, Label: config.JobTypeLabels[t]}
	}
	return types
}

// FileURL presigns a fresh download URL for a completed upload.
func (s *JobService) FileURL(ctx context.Context, id uint) (*dto.FileURLResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "get job")
	}

	if job.JobType != config.JobTypeUploadFile {
		return nil, common.Errf(http.StatusBadRequest, "job %d is not an upload_file job", job.ID)
	}
	if job.Status != config.JobStatusCompleted {
		return nil, common.Errf(http.StatusNotFound, "file is not available until the upload completes")
	}

	key, _ := job.ResultMap()["s3_key"].(string)
	if key == "" {
		key = objectstore.Key(job.ID, job.Param("file_name"))
	}

	url, err := s.files.URLFor(ctx, key)
	if err != nil {
		s.logger.Errorw("presign failed", "job_id", job.ID, "key", key, "error", err)
		return nil, common.Errf(http.StatusInternalServerError, "failed to generate file url")
	}
	return &dto.FileURLResponseDTO{FileURL: url}, nil
}

// buildJob validates one job definition and returns the unsaved model.
func (s *JobService) buildJob(
	jobType config.JobType,
	params json.RawMessage,
	priority, maxRetries *int,
	sched dto.ScheduleDTO,
) (*models.Job, error) {
	if !slices.Contains(config.AllowedJobTypes, jobType) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid job type",
			map[string]any{
				"provided": jobType,
				"allowed":  config.AllowedJobTypes,
			},
		)
	}

	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	var obj map[string]any
	if err := json.Unmarshal(params, &obj); err != nil || obj == nil {
		return nil, common.FieldError("parameters", "must be a JSON object")
	}

	switch jobType {
	case config.JobTypeSendEmail:
		if err := validatePayload[dto.SendEmailPayload](params); err != nil {
			return nil, err
		}
	case config.JobTypeUploadFile:
		if err := validatePayload[dto.UploadFilePayload](params); err != nil {
			return nil, err
		}
	}

	if sched.ScheduleType == "" {
		sched.ScheduleType = config.ScheduleImmediate
	}
	if err := s.validateSchedule(&sched); err != nil {
		return nil, err
	}

	job := &models.Job{
		JobType:       jobType,
		Parameters:    datatypes.JSON(params),
		Status:        config.JobStatusPending,
		Priority:      config.DefaultPriority,
		MaxRetries:    config.DefaultMaxRetries,
		ScheduleType:  sched.ScheduleType,
		ScheduledTime: sched.ScheduledTime,
		Frequency:     sched.Frequency,
	}
	if priority != nil {
		job.Priority = *priority
	}
	if maxRetries != nil {
		job.MaxRetries = *maxRetries
	}
	return job, nil
}

// validateSchedule checks that the schedule fields agree with the
// schedule type.
func (s *JobService) validateSchedule(sched *dto.ScheduleDTO) error {
	fields := map[string]any{}

	switch sched.ScheduleType {
	case config.ScheduleImmediate:
		if sched.ScheduledTime != nil {
			fields["scheduled_time"] = "only allowed for scheduled and interval jobs"
		}
		if sched.Frequency != nil {
			fields["frequency"] = "only allowed for interval jobs"
		}
	case config.ScheduleScheduled:
		switch {
		case sched.ScheduledTime == nil:
			fields["scheduled_time"] = "required for scheduled jobs"
		case !sched.ScheduledTime.After(s.opts.Now()):
			fields["scheduled_time"] = "must be in the future"
		}
		if sched.Frequency != nil {
			fields["frequency"] = "only allowed for interval jobs"
		}
	case config.ScheduleInterval:
		switch {
		case sched.Frequency == nil || *sched.Frequency == "":
			fields["frequency"] = "required for interval jobs"
		case !slices.Contains(config.AllowedFrequencies, *sched.Frequency):
			fields["frequency"] = fmt.Sprintf("must be one of %v", config.AllowedFrequencies)
		}
	default:
		fields["schedule_type"] = fmt.Sprintf("must be one of %v", config.AllowedScheduleTypes)
	}

	if len(fields) > 0 {
		return common.NewAPIError(http.StatusBadRequest, "invalid schedule", fields)
	}
	return nil
}

// schedule hands a stored job to the scheduler and removes it again when
// that fails.
func (s *JobService) schedule(ctx context.Context, job *models.Job) error {
	if err := s.scheduler.Schedule(ctx, job); err != nil {
		s.logger.Errorw("scheduling failed, removing job", "job_id", job.ID, "error", err)
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), job.ID); delErr != nil {
			s.logger.Errorw("could not remove unscheduled job", "job_id", job.ID, "error", delErr)
		}
		return mapError(err, "schedule job")
	}
	return nil
}

// restoreSchedule puts back the schedule a failed reschedule replaced and
// arranges it again, so the job keeps firing as it did before the update.
func (s *JobService) restoreSchedule(ctx context.Context, job *models.Job, prev dto.ScheduleDTO) {
	applySchedule(job, prev)
	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Errorw("could not restore job schedule", "job_id", job.ID, "error", err)
		return
	}
	if err := s.scheduler.Reschedule(ctx, job); err != nil {
		s.logger.Errorw("could not rearm previous schedule", "job_id", job.ID, "error", err)
	}
}

func applySchedule(job *models.Job, sched dto.ScheduleDTO) {
	job.ScheduleType = sched.ScheduleType
	job.ScheduledTime = sched.ScheduledTime
	job.Frequency = sched.Frequency
}

// createAll stores jobs in one batch and schedules each. If any cannot be
// scheduled the whole batch is withdrawn.
func (s *JobService) createAll(ctx context.Context, jobs []*models.Job) ([]dto.JobResponseDTO, error) {
	if err := s.repo.CreateBatch(ctx, jobs); err != nil {
		return nil, mapError(err, "add jobs to database")
	}

	for i, job := range jobs {
		if err := s.scheduler.Schedule(ctx, job); err != nil {
			s.logger.Errorw("scheduling failed, withdrawing batch", "job_id", job.ID, "error", err)
			s.withdraw(context.WithoutCancel(ctx), jobs, i)
			return nil, mapError(err, "schedule jobs")
		}
	}

	out := make([]dto.JobResponseDTO, len(jobs))
	for i, job := range jobs {
		out[i] = toResponse(job)
	}
	return out, nil
}

// withdraw removes a batch whose first scheduled jobs are already live.
func (s *JobService) withdraw(ctx context.Context, jobs []*models.Job, scheduled int) {
	for i, job := range jobs {
		if i < scheduled {
			if err := s.scheduler.Cancel(ctx, job.ID); err != nil {
				s.logger.Errorw("could not cancel job", "job_id", job.ID, "error", err)
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Errorw("could not remove job", "job_id", job.ID, "error", err)
		}
	}
}

func scheduleChanged(job *models.Job, next dto.ScheduleDTO) bool {
	if job.ScheduleType != next.ScheduleType {
		return true
	}
	if (job.ScheduledTime == nil) != (next.ScheduledTime == nil) {
		return true
	}
	if job.ScheduledTime != nil && !job.ScheduledTime.Equal(*next.ScheduledTime) {
		return true
	}
	if (job.Frequency == nil) != (next.Frequency == nil) {
		return true
	}
	return job.Frequency != nil && *job.Frequency != *next.Frequency
}

func toResponse(job *models.Job) dto.JobResponseDTO {
	resp := dto.JobResponseDTO{
		ID:            job.ID,
		JobType:       job.JobType,
		Parameters:    json.RawMessage(job.Parameters),
		Status:        job.Status,
		Priority:      job.Priority,
		MaxRetries:    job.MaxRetries,
		Retries:       job.Retries,
		Result:        json.RawMessage("null"),
		ScheduleType:  job.ScheduleType,
		ScheduledTime: job.ScheduledTime,
		Frequency:     job.Frequency,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
	if len(job.Result) > 0 {
		resp.Result = json.RawMessage(job.Result)
	}
	if job.JobType == config.JobTypeUploadFile {
		resp.FileURL, _ = job.ResultMap()["file_url"].(string)
	}
	return resp
}

// mapError turns domain and context errors into API errors.
func mapError(err error, action string) error {
	var apiErr common.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	case errors.Is(err, common.ErrJobNotFound):
		return common.Errf(http.StatusNotFound, "job not found")
	case errors.Is(err, common.ErrInvalidState):
		return common.Errf(http.StatusConflict, "only pending scheduled or interval jobs can be updated")
	case errors.Is(err, common.ErrStaleJob):
		return common.Errf(http.StatusConflict, "job was modified concurrently, reload and try again")
	case errors.Is(err, common.ErrInvalidSchedule), errors.Is(err, common.ErrValidation):
		return common.Errf(http.StatusBadRequest, "%s", err.Error())
	default:
		return common.Errf(http.StatusInternalServerError, "failed to %s", action)
	}
}

// describe flattens an API error into a single field message.
func describe(err error) any {
	var apiErr common.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Fields != nil {
			return map[string]any{"error": apiErr.Message, "fields": apiErr.Fields}
		}
		return apiErr.Message
	}
	return err.Error()
}

func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.S().Warnw("could not remove temporary file", "path", path, "error", err)
	}
}

package job

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/models"
)

// JobRepoInterface defines the contract for job repository operations.
type JobRepoInterface interface {
	Create(ctx context.Context, job *models.Job) error
	CreateBatch(ctx context.Context, jobs []*models.Job) error
	Get(ctx context.Context, id uint) (*models.Job, error)
	Save(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter dto.JobFilterDTO) ([]models.Job, int64, error)
	CountByStatus(ctx context.Context) (map[config.JobStatus]int64, error)
	ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error)
}

// Scheduler arranges and cancels job executions.
type Scheduler interface {
	Schedule(ctx context.Context, job *models.Job) error
	Reschedule(ctx context.Context, job *models.Job) error
	Cancel(ctx context.Context, jobID uint) error
	RunNow(ctx context.Context, job *models.Job) error
}

// FileLinker hands out download URLs for stored files.
type FileLinker interface {
	URLFor(ctx context.Context, key string) (string, error)
}

// JobServiceInterface defines the contract for job business logic operations.
type JobServiceInterface interface {
	CreateJob(ctx context.Context, dto *dto.JobCreateDTO) (*dto.JobResponseDTO, error)
	CreateBulk(ctx context.Context, dto *dto.BulkJobCreateDTO) ([]dto.JobResponseDTO, error)
	SendEmail(ctx context.Context, dto *dto.SendEmailDTO) ([]dto.JobResponseDTO, error)
	UploadFile(ctx context.Context, dto *dto.UploadFileDTO, fileName string, src io.Reader) (*dto.JobResponseDTO, error)
	GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	ListJobs(ctx context.Context, filter dto.JobFilterDTO) (*dto.JobListResponseDTO, error)
	UpdateJob(ctx context.Context, id uint, dto *dto.JobUpdateDTO) (*dto.JobResponseDTO, error)
	DeleteJob(ctx context.Context, id uint) error
	RetryJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	Stats(ctx context.Context) (*dto.JobStatsDTO, error)
	JobTypes() []dto.JobTypeDTO
	FileURL(ctx context.Context, id uint) (*dto.FileURLResponseDTO, error)
}

// JobHandlerInterface defines the contract for HTTP request handlers.
type JobHandlerInterface interface {
	Create(c *gin.Context)
	Bulk(c *gin.Context)
	SendEmail(c *gin.Context)
	UploadFile(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Retry(c *gin.Context)
	Stats(c *gin.Context)
	Types(c *gin.Context)
	FileURL(c *gin.Context)
}

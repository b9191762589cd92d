package mocks

import (
	"context"
	"time"

	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/stretchr/testify/mock"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobRepoMock) CreateBatch(ctx context.Context, jobs []*models.Job) error {
	args := m.Called(ctx, jobs)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id uint) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) Save(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobRepoMock) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) List(ctx context.Context, filter dto.JobFilterDTO) ([]models.Job, int64, error) {
	args := m.Called(ctx, filter)

	jobs, _ := args.Get(0).([]models.Job)
	total, _ := args.Get(1).(int64)
	return jobs, total, args.Error(2)
}

func (m *JobRepoMock) CountByStatus(ctx context.Context) (map[config.JobStatus]int64, error) {
	args := m.Called(ctx)

	counts, _ := args.Get(0).(map[config.JobStatus]int64)
	return counts, args.Error(1)
}

func (m *JobRepoMock) ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, staleDuration)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

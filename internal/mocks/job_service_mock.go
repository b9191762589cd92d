package mocks

import (
	"context"
	"io"

	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/stretchr/testify/mock"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) CreateBulk(ctx context.Context, req *dto.BulkJobCreateDTO) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).([]dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) SendEmail(ctx context.Context, req *dto.SendEmailDTO) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).([]dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) UploadFile(ctx context.Context, req *dto.UploadFileDTO, fileName string, src io.Reader) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, req, fileName, src)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) ListJobs(ctx context.Context, filter dto.JobFilterDTO) (*dto.JobListResponseDTO, error) {
	args := m.Called(ctx, filter)

	resp, _ := args.Get(0).(*dto.JobListResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) UpdateJob(ctx context.Context, id uint, req *dto.JobUpdateDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id, req)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) DeleteJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobServiceMock) RetryJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) Stats(ctx context.Context) (*dto.JobStatsDTO, error) {
	args := m.Called(ctx)

	resp, _ := args.Get(0).(*dto.JobStatsDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) JobTypes() []dto.JobTypeDTO {
	args := m.Called()

	resp, _ := args.Get(0).([]dto.JobTypeDTO)
	return resp
}

func (m *JobServiceMock) FileURL(ctx context.Context, id uint) (*dto.FileURLResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.FileURLResponseDTO)
	return resp, args.Error(1)
}

package job

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/mocks"
	"github.com/joshu-sajeev/goscheduler/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc JobServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TimeoutMiddleware(5*time.Second), middleware.ErrorHandler())
	RegisterRoutes(r, NewJobHandler(svc))
	return r
}

func serve(r http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJobHandler_Create(t *testing.T) {
	created := &dto.JobResponseDTO{ID: 1, JobType: config.JobTypeFetchData, Status: config.JobStatusPending}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.JobServiceMock)
		expectedStatus int
	}{
		{
			name: "successful job creation",
			body: `{"job_type":"fetch_data","parameters":{"url":"https://example.com"},"priority":7}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("CreateJob", mock.Anything, mock.MatchedBy(func(req *dto.JobCreateDTO) bool {
					return req.JobType == config.JobTypeFetchData && *req.Priority == 7
				})).Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "schedule fields are bound",
			body: `{"job_type":"fetch_data","schedule_type":"interval","frequency":"daily","scheduled_time":"2026-04-01T09:00:00Z"}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("CreateJob", mock.Anything, mock.MatchedBy(func(req *dto.JobCreateDTO) bool {
					return req.ScheduleType == config.ScheduleInterval &&
						*req.Frequency == config.FrequencyDaily &&
						req.ScheduledTime.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
				})).Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid request body JSON",
			body:           "{invalid json}",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing job type",
			body:           `{"parameters":{}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "priority out of range",
			body:           `{"job_type":"fetch_data","priority":42}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service validation error",
			body: `{"job_type":"bogus"}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("CreateJob", mock.Anything, mock.Anything).
					Return(nil, common.NewAPIError(http.StatusBadRequest, "invalid job type", map[string]any{"provided": "bogus"}))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "database connection error",
			body: `{"job_type":"fetch_data"}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("CreateJob", mock.Anything, mock.Anything).
					Return(nil, common.Errf(http.StatusInternalServerError, "failed to add job to database"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.JobServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(newTestRouter(mockService), http.MethodPost, "/jobs", bytes.NewBufferString(tt.body), "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch for test: %s", tt.name)
			mockService.AssertExpectations(t)
		})
	}
}

func TestJobHandler_Get(t *testing.T) {
	validJobResponse := &dto.JobResponseDTO{
		ID:           1,
		JobType:      config.JobTypeSendEmail,
		Parameters:   json.RawMessage(`{"recipient":"a@example.com"}`),
		Status:       config.JobStatusPending,
		Priority:     5,
		MaxRetries:   3,
		Result:       json.RawMessage(`null`),
		ScheduleType: config.ScheduleImmediate,
	}

	tests := []struct {
		name           string
		jobID          string
		setupMock      func(*mocks.JobServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "successful fetch",
			jobID: "1",
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("GetJobByID", mock.Anything, uint(1)).Return(validJobResponse, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"id":1,"job_type":"send_email","parameters":{"recipient":"a@example.com"},"status":"pending",` +
				`"priority":5,"max_retries":3,"retries":0,"result":null,"schedule_type":"immediate","scheduled_time":null,` +
				`"frequency":null,"created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}`,
		},
		{
			name:           "invalid id",
			jobID:          "abc",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid ID"}`,
		},
		{
			name:           "zero id",
			jobID:          "0",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid ID"}`,
		},
		{
			name:  "not found",
			jobID: "99",
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("GetJobByID", mock.Anything, uint(99)).Return(nil, common.Errf(http.StatusNotFound, "job not found"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"job not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.JobServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(newTestRouter(mockService), http.MethodGet, "/jobs/"+tt.jobID, nil, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestJobHandler_List(t *testing.T) {
	mockService := new(mocks.JobServiceMock)
	mockService.On("ListJobs", mock.Anything, dto.JobFilterDTO{
		JobType:  config.JobTypeSendEmail,
		Status:   config.JobStatusFailed,
		Page:     2,
		PageSize: 10,
	}).Return(&dto.JobListResponseDTO{Count: 11, Page: 2, PageSize: 10, Results: []dto.JobResponseDTO{}}, nil)

	w := serve(newTestRouter(mockService), http.MethodGet, "/jobs?job_type=send_email&status=failed&page=2&page_size=10", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":11,"page":2,"page_size":10,"results":[]}`, w.Body.String())
	mockService.AssertExpectations(t)

	w = serve(newTestRouter(new(mocks.JobServiceMock)), http.MethodGet, "/jobs?page_size=1000", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		setupMock      func(*mocks.JobServiceMock)
		expectedStatus int
	}{
		{
			name:   "patch frequency",
			method: http.MethodPatch,
			body:   `{"frequency":"weekly"}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("UpdateJob", mock.Anything, uint(3), mock.MatchedBy(func(req *dto.JobUpdateDTO) bool {
					return *req.Frequency == config.FrequencyWeekly && req.ScheduleType == nil && len(req.Extra) == 0
				})).Return(&dto.JobResponseDTO{ID: 3}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "extra fields are forwarded",
			method: http.MethodPut,
			body:   `{"scheduled_time":"2026-05-01T10:00:00Z","status":"completed","priority":1}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("UpdateJob", mock.Anything, uint(3), mock.MatchedBy(func(req *dto.JobUpdateDTO) bool {
					return assert.ObjectsAreEqual([]string{"priority", "status"}, req.Extra)
				})).Return(nil, common.Errf(http.StatusConflict, "only schedule_type, scheduled_time and frequency can be updated"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "body must be an object",
			method:         http.MethodPatch,
			body:           `["frequency"]`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "invalid state",
			method: http.MethodPatch,
			body:   `{"frequency":"daily"}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("UpdateJob", mock.Anything, uint(3), mock.Anything).
					Return(nil, common.Errf(http.StatusConflict, "only pending scheduled or interval jobs can be updated"))
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.JobServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(newTestRouter(mockService), tt.method, "/jobs/3", bytes.NewBufferString(tt.body), "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestJobHandler_Delete(t *testing.T) {
	mockService := new(mocks.JobServiceMock)
	mockService.On("DeleteJob", mock.Anything, uint(4)).Return(nil)
	mockService.On("DeleteJob", mock.Anything, uint(5)).Return(common.Errf(http.StatusNotFound, "job not found"))
	r := newTestRouter(mockService)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/jobs/4", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/jobs/5", nil, "").Code)
	mockService.AssertExpectations(t)
}

func TestJobHandler_Retry(t *testing.T) {
	mockService := new(mocks.JobServiceMock)
	mockService.On("RetryJob", mock.Anything, uint(8)).Return(&dto.JobResponseDTO{ID: 8, Status: config.JobStatusPending}, nil)
	mockService.On("RetryJob", mock.Anything, uint(9)).Return(nil, common.Errf(http.StatusBadRequest, "Only failed jobs can be retried."))
	r := newTestRouter(mockService)

	w := serve(r, http.MethodPost, "/jobs/8/retry", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/jobs/9/retry", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Only failed jobs can be retried."}`, w.Body.String())
}

func TestJobHandler_StatsAndTypes(t *testing.T) {
	mockService := new(mocks.JobServiceMock)
	mockService.On("Stats", mock.Anything).Return(&dto.JobStatsDTO{Total: 3, Pending: 1, Completed: 2}, nil)
	mockService.On("JobTypes").Return([]dto.JobTypeDTO{{Key: config.JobTypeSendEmail, Label: "Send Email"}})
	r := newTestRouter(mockService)

	w := serve(r, http.MethodGet, "/jobs/stats", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3,"pending":1,"running":0,"completed":2,"failed":0}`, w.Body.String())

	w = serve(r, http.MethodGet, "/jobs/types", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"key":"send_email","label":"Send Email"}]`, w.Body.String())
}

func TestJobHandler_SendEmail(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.JobServiceMock)
		expectedStatus int
	}{
		{
			name: "one job per recipient",
			body: `{"recipients":["a@example.com","b@example.com"],"subject":"Hi","body":"Hello"}`,
			setupMock: func(m *mocks.JobServiceMock) {
				m.On("SendEmail", mock.Anything, mock.MatchedBy(func(req *dto.SendEmailDTO) bool {
					return len(req.Recipients) == 2
				})).Return([]dto.JobResponseDTO{{ID: 1}, {ID: 2}}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed recipient",
			body:           `{"recipients":["not-an-email"],"subject":"Hi","body":"Hello"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty recipient list",
			body:           `{"recipients":[],"subject":"Hi","body":"Hello"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.JobServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(newTestRouter(mockService), http.MethodPost, "/jobs/send-email", bytes.NewBufferString(tt.body), "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestJobHandler_Bulk(t *testing.T) {
	mockService := new(mocks.JobServiceMock)
	mockService.On("CreateBulk", mock.Anything, mock.MatchedBy(func(req *dto.BulkJobCreateDTO) bool {
		return len(req.Jobs) == 2
	})).Return([]dto.JobResponseDTO{{ID: 1}, {ID: 2}}, nil)
	r := newTestRouter(mockService)

	w := serve(r, http.MethodPost, "/jobs/bulk",
		bytes.NewBufferString(`{"jobs":[{"job_type":"fetch_data"},{"job_type":"cleanup_files"}]}`), "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(r, http.MethodPost, "/jobs/bulk", bytes.NewBufferString(`{"jobs":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestJobHandler_UploadFile(t *testing.T) {
	newForm := func(t *testing.T, withFile bool, fields map[string]string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		if withFile {
			part, err := mw.CreateFormFile("file", "report.csv")
			require.NoError(t, err)
			_, err = part.Write([]byte("a,b\n"))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("creates an upload job", func(t *testing.T) {
		mockService := new(mocks.JobServiceMock)
		mockService.On("UploadFile", mock.Anything, mock.MatchedBy(func(req *dto.UploadFileDTO) bool {
			return req.FileName == "renamed.csv" && *req.Priority == 8 &&
				req.ScheduleType == config.ScheduleScheduled &&
				req.ScheduledTime.Equal(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
		}), "report.csv", mock.Anything).Return(&dto.JobResponseDTO{ID: 12, JobType: config.JobTypeUploadFile}, nil)

		body, ct := newForm(t, true, map[string]string{
			"file_name":      "renamed.csv",
			"priority":       "8",
			"schedule_type":  "scheduled",
			"scheduled_time": "2026-06-01T08:00:00Z",
		})
		w := serve(newTestRouter(mockService), http.MethodPost, "/jobs/upload-file", body, ct)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("file is required", func(t *testing.T) {
		mockService := new(mocks.JobServiceMock)
		body, ct := newForm(t, false, map[string]string{"file_name": "x.csv"})

		w := serve(newTestRouter(mockService), http.MethodPost, "/jobs/upload-file", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "a file is required")
		mockService.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestJobHandler_FileURL(t *testing.T) {
	mockService := new(mocks.JobServiceMock)
	mockService.On("FileURL", mock.Anything, uint(2)).Return(&dto.FileURLResponseDTO{FileURL: "https://signed"}, nil)

	w := serve(newTestRouter(mockService), http.MethodGet, "/jobs/2/file-url", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"file_url":"https://signed"}`, w.Body.String())
}

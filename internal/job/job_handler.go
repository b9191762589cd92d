package job

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/middleware"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(s JobServiceInterface) *JobHandler {
	return &JobHandler{service: s}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// RegisterRoutes mounts the job endpoints on r.
func RegisterRoutes(r gin.IRouter, h JobHandlerInterface) {
	jobs := r.Group("/jobs")
	jobs.POST("", h.Create)
	jobs.GET("", h.List)
	jobs.GET("/types", h.Types)
	jobs.GET("/stats", h.Stats)
	jobs.POST("/bulk", h.Bulk)
	jobs.POST("/send-email", h.SendEmail)
	jobs.POST("/upload-file", h.UploadFile)
	jobs.GET("/:id", h.Get)
	jobs.PUT("/:id", h.Update)
	jobs.PATCH("/:id", h.Update)
	jobs.DELETE("/:id", h.Delete)
	jobs.POST("/:id/retry", h.Retry)
	jobs.GET("/:id/file-url", h.FileURL)
}

// Create handles HTTP requests for creating a new job.
// It validates and binds the request body, delegates business logic
// to the JobService, and returns HTTP 201 on successful creation.
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.JobCreateDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.CreateJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *JobHandler) Bulk(c *gin.Context) {
	var req dto.BulkJobCreateDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.CreateBulk(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *JobHandler) SendEmail(c *gin.Context) {
	var req dto.SendEmailDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.SendEmail(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// UploadFile accepts a multipart form with a "file" part plus the
// optional scheduling fields.
func (h *JobHandler) UploadFile(c *gin.Context) {
	var req dto.UploadFileDTO

	if !middleware.BindForm(c, &req) {
		c.Abort()
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.Error(common.FieldError("file", "a file is required"))
		c.Abort()
		return
	}

	src, err := header.Open()
	if err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "could not read uploaded file"))
		c.Abort()
		return
	}
	defer src.Close()

	resp, err := h.service.UploadFile(c.Request.Context(), &req, header.Filename, src)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles HTTP requests to fetch a job by its ID.
// It validates the job ID, calls the JobService, and returns
// HTTP 200 with the job data on success or an appropriate error code.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetJobByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List handles HTTP requests to retrieve a page of jobs, optionally
// filtered by job_type and status.
func (h *JobHandler) List(c *gin.Context) {
	var filter dto.JobFilterDTO

	if !middleware.BindQuery(c, &filter) {
		c.Abort()
		return
	}

	resp, err := h.service.ListJobs(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Update handles HTTP requests that change the scheduling fields of a
// job. Any other field in the body is reported back to the service so it
// can refuse the update.
func (h *JobHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "could not read body"))
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return
	}

	var req dto.JobUpdateDTO
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return
	}
	for name := range fields {
		switch name {
		case "schedule_type", "scheduled_time", "frequency":
		default:
			req.Extra = append(req.Extra, name)
		}
	}
	sort.Strings(req.Extra)

	resp, err := h.service.UpdateJob(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *JobHandler) Retry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.RetryJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) Stats(c *gin.Context) {
	resp, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.JobTypes())
}

func (h *JobHandler) FileURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.FileURL(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid ID"))
		return 0, false
	}
	return uint(id), true
}

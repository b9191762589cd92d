package dto

// UploadFilePayload is the parameter shape of an upload_file job.
type UploadFilePayload struct {
	FileName string `json:"file_name" validate:"required"`
	TempPath string `json:"temp_path" validate:"required"`
}

// UploadFileDTO holds the non-file fields of a multipart upload request.
type UploadFileDTO struct {
	FileName   string `form:"file_name" validate:"omitempty,max=255"`
	Priority   *int   `form:"priority" validate:"omitempty,gte=0,lte=10"`
	MaxRetries *int   `form:"max_retries" validate:"omitempty,gte=0,lte=20"`
	ScheduleDTO
}

type FileURLResponseDTO struct {
	FileURL string `json:"file_url"`
}

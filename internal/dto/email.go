package dto

// SendEmailPayload is the parameter shape of a send_email job.
type SendEmailPayload struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Subject   string `json:"subject" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

// SendEmailDTO creates one send_email job per recipient.
type SendEmailDTO struct {
	Recipients []string `json:"recipients" validate:"required,min=1,max=100,dive,required,email"`
	Subject    string   `json:"subject" validate:"required,max=255"`
	Body       string   `json:"body" validate:"required"`
	Priority   *int     `json:"priority" validate:"omitempty,gte=0,lte=10"`
	MaxRetries *int     `json:"max_retries" validate:"omitempty,gte=0,lte=20"`
	ScheduleDTO
}

package config

type (
	JobType      string
	JobStatus    string
	ScheduleType string
	Frequency    string
)

const (
	JobTypeSendEmail        JobType = "send_email"
	JobTypeProcessImage     JobType = "process_image"
	JobTypeGenerateReport   JobType = "generate_report"
	JobTypeBackupDatabase   JobType = "backup_database"
	JobTypeFetchData        JobType = "fetch_data"
	JobTypeBatchProcess     JobType = "batch_process"
	JobTypeSendNotification JobType = "send_notification"
	JobTypeCleanupFiles     JobType = "cleanup_files"
	JobTypeUploadFile       JobType = "upload_file"
)

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"

	// JobStatusDeleted is only ever published, never persisted.
	JobStatusDeleted JobStatus = "deleted"
)

const (
	ScheduleImmediate ScheduleType = "immediate"
	ScheduleScheduled ScheduleType = "scheduled"
	ScheduleInterval  ScheduleType = "interval"
)

const (
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

const (
	DefaultPriority   = 5
	DefaultMaxRetries = 3

	// JobStatusTopic is the pub/sub topic status changes are published on.
	JobStatusTopic = "job_status"
)

var (
	AllowedJobTypes = []JobType{
		JobTypeSendEmail,
		JobTypeProcessImage,
		JobTypeGenerateReport,
		JobTypeBackupDatabase,
		JobTypeFetchData,
		JobTypeBatchProcess,
		JobTypeSendNotification,
		JobTypeCleanupFiles,
		JobTypeUploadFile,
	}

	JobTypeLabels = map[JobType]string{
		JobTypeSendEmail:        "Send Email",
		JobTypeProcessImage:     "Process Image",
		JobTypeGenerateReport:   "Generate Report",
		JobTypeBackupDatabase:   "Backup Database",
		JobTypeFetchData:        "Fetch Data",
		JobTypeBatchProcess:     "Batch Process",
		JobTypeSendNotification: "Send Notification",
		JobTypeCleanupFiles:     "Cleanup Files",
		JobTypeUploadFile:       "Upload File to S3",
	}

	AllowedStatuses = []JobStatus{
		JobStatusPending,
		JobStatusRunning,
		JobStatusCompleted,
		JobStatusFailed,
	}

	AllowedScheduleTypes = []ScheduleType{ScheduleImmediate, ScheduleScheduled, ScheduleInterval}

	AllowedFrequencies = []Frequency{
		FrequencyHourly,
		FrequencyDaily,
		FrequencyWeekly,
		FrequencyMonthly,
		FrequencyYearly,
	}
)

// IsTerminal reports whether no further automatic transition leaves s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Reschedulable reports whether jobs of this schedule type may have their
// scheduling fields updated.
func (t ScheduleType) Reschedulable() bool {
	return t == ScheduleScheduled || t == ScheduleInterval
}

package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/objectstore"
)

var validate = validator.New()

func decodeParams[T any](job *models.Job) (T, error) {
	var p T
	if err := json.Unmarshal(job.Parameters, &p); err != nil {
		return p, errors.Wrap(err, "decode parameters")
	}
	if err := validate.Struct(p); err != nil {
		return p, errors.Wrap(err, "invalid parameters")
	}
	return p, nil
}

// sendEmail sends one message to the job's recipient.
func (e *Executor) sendEmail(ctx context.Context, job *models.Job) (map[string]any, error) {
	p, err := decodeParams[dto.SendEmailPayload](job)
	if err != nil {
		return nil, err
	}

	if err := e.mailer.Send(ctx, p.Recipient, p.Subject, p.Body); err != nil {
		return nil, err
	}

	return map[string]any{
		"message":   fmt.Sprintf("Email sent to %s", p.Recipient),
		"recipient": p.Recipient,
	}, nil
}

// uploadFile moves the job's temporary file into the object store. A
// missing temporary file fails with ErrSourceMissing.
func (e *Executor) uploadFile(ctx context.Context, job *models.Job) (map[string]any, error) {
	p, err := decodeParams[dto.UploadFilePayload](job)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p.TempPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(common.ErrSourceMissing, "temporary file %s", p.TempPath)
		}
		return nil, errors.Wrap(err, "open temporary file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat temporary file")
	}

	key := objectstore.Key(job.ID, p.FileName)
	if err := e.objects.Put(ctx, key, f, info.Size()); err != nil {
		return nil, err
	}

	url, err := e.objects.URLFor(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = f.Close()
	if err := os.Remove(p.TempPath); err != nil {
		e.logger.Warnw("could not remove temporary file", "job_id", job.ID, "path", p.TempPath, "error", err)
	}

	return map[string]any{
		"message":   fmt.Sprintf("File %s uploaded to S3.", p.FileName),
		"file_url":  url,
		"file_name": p.FileName,
		"s3_key":    key,
	}, nil
}

// simulate stands in for job types that have no real handler yet.
func (e *Executor) simulate(ctx context.Context, job *models.Job) (map[string]any, error) {
	select {
	case <-time.After(e.cfg.SimulatedJobDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return map[string]any{
		"message": fmt.Sprintf("%s completed successfully.", job.JobType),
	}, nil
}

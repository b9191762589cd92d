package mocks

import (
	"context"
	"io"
	"time"

	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"github.com/joshu-sajeev/goscheduler/internal/schedule"
	"github.com/joshu-sajeev/goscheduler/internal/trigger"
	"github.com/stretchr/testify/mock"
)

type SchedulerMock struct {
	mock.Mock
}

func (m *SchedulerMock) Schedule(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *SchedulerMock) Reschedule(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *SchedulerMock) Cancel(ctx context.Context, jobID uint) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *SchedulerMock) RunNow(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type ProducerMock struct {
	mock.Mock
}

func (m *ProducerMock) EnqueueNow(ctx context.Context, msg queue.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *ProducerMock) EnqueueAt(ctx context.Context, msg queue.Message, at time.Time) error {
	args := m.Called(ctx, msg, at)
	return args.Error(0)
}

func (m *ProducerMock) EnqueueAfter(ctx context.Context, msg queue.Message, delay time.Duration) error {
	args := m.Called(ctx, msg, delay)
	return args.Error(0)
}

func (m *ProducerMock) Cancel(ctx context.Context, jobID uint) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// TriggerStoreMock records calls made inside InTx on itself.
type TriggerStoreMock struct {
	mock.Mock
}

func (m *TriggerStoreMock) UpsertRecurring(ctx context.Context, name string, rule schedule.Rule, firstRun time.Time, enabled bool, task trigger.Task, args trigger.Args) error {
	called := m.Called(ctx, name, rule, firstRun, enabled, task, args)
	return called.Error(0)
}

func (m *TriggerStoreMock) UpsertOneOff(ctx context.Context, name string, at time.Time, task trigger.Task, args trigger.Args, enabled bool) error {
	called := m.Called(ctx, name, at, task, args, enabled)
	return called.Error(0)
}

func (m *TriggerStoreMock) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *TriggerStoreMock) Enable(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *TriggerStoreMock) Get(ctx context.Context, name string) (*models.Trigger, error) {
	args := m.Called(ctx, name)

	t, _ := args.Get(0).(*models.Trigger)
	return t, args.Error(1)
}

func (m *TriggerStoreMock) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Trigger, error) {
	args := m.Called(ctx, now, limit)

	due, _ := args.Get(0).([]models.Trigger)
	return due, args.Error(1)
}

func (m *TriggerStoreMock) MarkFired(ctx context.Context, id uint, firedAt time.Time, next *time.Time) error {
	args := m.Called(ctx, id, firedAt, next)
	return args.Error(0)
}

func (m *TriggerStoreMock) InTx(ctx context.Context, fn func(trigger.Store) error) error {
	return fn(m)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Publish(ctx context.Context, topic string, payload any) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

type MailerMock struct {
	mock.Mock
}

func (m *MailerMock) Send(ctx context.Context, recipient, subject, body string) error {
	args := m.Called(ctx, recipient, subject, body)
	return args.Error(0)
}

type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	args := m.Called(ctx, key, body, size)
	return args.Error(0)
}

func (m *ObjectStoreMock) URLFor(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

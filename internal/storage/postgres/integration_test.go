//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/trigger"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testPort string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	pool.MaxWait = 60 * time.Second

	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=testuser",
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_DB=example",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start postgres container: %s", err)
	}

	testPort = pg.GetPort("5432/tcp")
	dsn := fmt.Sprintf(
		"host=localhost user=testuser password=testpass dbname=example port=%s sslmode=disable TimeZone=UTC",
		testPort,
	)

	if err := pool.Retry(func() error {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := ConnectDB(ctx, testConfig(), nil)
	if err != nil {
		log.Fatalf("Could not open gorm connection: %s", err)
	}
	if err := Migrate(ctx, db); err != nil {
		log.Fatalf("Could not run migrations: %s", err)
	}
	closeTestDB(db)
	cancel()

	code := m.Run()

	if err := pool.Purge(pg); err != nil {
		log.Fatalf("Could not purge postgres container: %s", err)
	}

	os.Exit(code)
}

func testConfig() *Config {
	return &Config{
		User:           "testuser",
		Password:       "testpass",
		Host:           "localhost",
		Port:           testPort,
		Database:       "example",
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
		ConnectTimeout: 2,
		LogLevel:       logger.Silent,
	}
}

// setupPostgres returns a fresh connection to an emptied database.
func setupPostgres(tb testing.TB) (*gorm.DB, context.Context) {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tb.Cleanup(cancel)

	db, err := ConnectDB(ctx, testConfig(), nil)
	require.NoError(tb, err)

	require.NoError(tb, db.Exec("DELETE FROM jobs").Error)
	require.NoError(tb, db.Exec("DELETE FROM triggers").Error)

	tb.Cleanup(func() { closeTestDB(db) })
	return db, ctx
}

func closeTestDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func TestConnectDB_Postgres(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{name: "explicit config connects"},
		{
			name:        "connection refused",
			mutate:      func(c *Config) { c.Port = "19999"; c.MaxRetries = 2; c.RetryDelay = 5 * time.Millisecond },
			errContains: "database connection failed after 2 attempts",
		},
		{
			name:        "invalid credentials",
			mutate:      func(c *Config) { c.Password = "wrongpass"; c.MaxRetries = 2; c.RetryDelay = 5 * time.Millisecond },
			errContains: "database connection failed after 2 attempts",
		},
		{
			name:        "non-existent database",
			mutate:      func(c *Config) { c.Database = "nonexistent_db"; c.MaxRetries = 1 },
			errContains: "database connection failed after 1 attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			db, err := ConnectDB(ctx, cfg, nil)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, db)
				return
			}

			require.NoError(t, err)
			defer closeTestDB(db)

			var dbName string
			require.NoError(t, db.Raw("SELECT current_database()").Scan(&dbName).Error)
			assert.Equal(t, "example", dbName)

			sqlDB, err := db.DB()
			require.NoError(t, err)
			assert.Equal(t, 50, sqlDB.Stats().MaxOpenConnections)
		})
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db, ctx := setupPostgres(t)

	require.NoError(t, Migrate(ctx, db))

	var version int64
	require.NoError(t, db.Raw("SELECT MAX(version_id) FROM goose_db_version").Scan(&version).Error)
	assert.Equal(t, int64(2), version)
}

func TestJobsTable_RejectsUnknownStatus(t *testing.T) {
	db, _ := setupPostgres(t)

	err := db.Exec("INSERT INTO jobs (job_type, status) VALUES ('fetch_data', 'sleeping')").Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs_status_check")
}

func TestJobRepository_PostgresRoundTrip(t *testing.T) {
	db, ctx := setupPostgres(t)
	repo := NewJobRepository(db)

	j := newJob(config.JobTypeSendEmail, config.JobStatusPending)
	freq := config.FrequencyWeekly
	j.ScheduleType = config.ScheduleInterval
	j.Frequency = &freq
	require.NoError(t, repo.Create(ctx, j))

	stale, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)

	j.Status = config.JobStatusRunning
	require.NoError(t, repo.Save(ctx, j))

	stale.Status = config.JobStatusCompleted
	err = repo.Save(ctx, stale)
	assert.True(t, errors.Is(err, common.ErrStaleJob))

	got, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusRunning, got.Status)
	assert.Equal(t, config.FrequencyWeekly, *got.Frequency)
	assert.Equal(t, 1, got.Version)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[config.JobStatusRunning])
}

func TestTriggerRepository_ClaimDueSkipsLockedRows(t *testing.T) {
	db, ctx := setupPostgres(t)
	repo := NewTriggerRepository(db)

	now := time.Now()
	require.NoError(t, repo.UpsertOneOff(ctx, "job-1", now.Add(-time.Minute), trigger.TaskExecuteJob, trigger.Args{JobID: 1}, true))
	require.NoError(t, repo.UpsertOneOff(ctx, "job-2", now.Add(-time.Minute), trigger.TaskExecuteJob, trigger.Args{JobID: 2}, true))

	claimed := make(chan []models.Trigger, 1)
	release := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		errCh <- repo.InTx(ctx, func(tx trigger.Store) error {
			due, err := tx.ClaimDue(ctx, now, 1)
			if err != nil {
				return err
			}
			claimed <- due
			<-release
			return nil
		})
	}()

	var first []models.Trigger
	select {
	case first = <-claimed:
	case err := <-errCh:
		t.Fatalf("first claim failed: %v", err)
	}
	require.Len(t, first, 1)

	second, err := repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, second, 1, "the locked row is skipped")
	assert.NotEqual(t, first[0].Name, second[0].Name)

	close(release)
	require.NoError(t, <-errCh)
}

func BenchmarkJobRepository_Create(b *testing.B) {
	db, ctx := setupPostgres(b)
	repo := NewJobRepository(db)

	for b.Loop() {
		_ = repo.Create(ctx, newJob(config.JobTypeFetchData, config.JobStatusPending))
	}
}

func BenchmarkJobRepository_Get(b *testing.B) {
	db, ctx := setupPostgres(b)
	repo := NewJobRepository(db)

	j := newJob(config.JobTypeFetchData, config.JobStatusPending)
	require.NoError(b, repo.Create(ctx, j))

	for b.Loop() {
		_, _ = repo.Get(ctx, j.ID)
	}
}

func BenchmarkJobRepository_Save(b *testing.B) {
	db, ctx := setupPostgres(b)
	repo := NewJobRepository(db)

	j := newJob(config.JobTypeFetchData, config.JobStatusPending)
	require.NoError(b, repo.Create(ctx, j))

	for b.Loop() {
		j.Retries++
		_ = repo.Save(ctx, j)
	}
}

func BenchmarkTriggerRepository_ClaimDue(b *testing.B) {
	db, ctx := setupPostgres(b)
	repo := NewTriggerRepository(db)

	now := time.Now()
	for i := 1; i <= 100; i++ {
		require.NoError(b, repo.UpsertOneOff(ctx, trigger.RecurringName(uint(i)), now.Add(-time.Minute),
			trigger.TaskExecuteJob, trigger.Args{JobID: uint(i)}, true))
	}

	for b.Loop() {
		_, _ = repo.ClaimDue(ctx, now, 100)
	}
}

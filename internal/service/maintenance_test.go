package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
	"github.com/target/translation-queue/internal/mocks"
	"github.com/target/translation-queue/internal/observability/statsd"
)

func testMaintenanceConfig() config.MaintenanceConfig {
	return config.MaintenanceConfig{
		Interval:      time.Minute,
		RetentionDays: 30,
		CleanupStates: []model.JobState{model.JobStateDone, model.JobStateSkipped},
		BatchSize:     100,
	}
}

func newTestMaintenance(t *testing.T, repo core.JobRepository, sink statsd.Sink) *MaintenanceService {
	t.Helper()
	svc, err := NewMaintenanceService(MaintenanceServiceOptions{
		Repo:       repo,
		Config:     testMaintenanceConfig(),
		MaxRetries: 5,
		Metrics:    sink,
	})
	require.NoError(t, err)
	return svc
}

func TestNewMaintenanceService_Validation(t *testing.T) {
	_, err := NewMaintenanceService(MaintenanceServiceOptions{MaxRetries: 1})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = NewMaintenanceService(MaintenanceServiceOptions{Repo: mocks.NewMockJobRepository(ctrl)})
	require.Error(t, err)
}

func TestMaintenanceService_RetryFailedJobsDrainsBatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := newTestMaintenance(t, repo, nil)

	params := core.RequeueFailedParams{MaxRetries: 5, Limit: 100}
	gomock.InOrder(
		repo.EXPECT().RequeueFailed(gomock.Any(), params).Return(int64(100), nil),
		repo.EXPECT().RequeueFailed(gomock.Any(), params).Return(int64(40), nil),
		repo.EXPECT().RequeueFailed(gomock.Any(), params).Return(int64(0), nil),
	)

	n, err := svc.RetryFailedJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(140), n)
}

func TestMaintenanceService_ResyncOutdatedJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := newTestMaintenance(t, repo, nil)

	gomock.InOrder(
		repo.EXPECT().ResyncOutdated(gomock.Any(), 100).Return(int64(3), nil),
		repo.EXPECT().ResyncOutdated(gomock.Any(), 100).Return(int64(0), nil),
	)

	n, err := svc.ResyncOutdatedJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMaintenanceService_CleanupOldJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := newTestMaintenance(t, repo, nil)

	states := []model.JobState{model.JobStateDone}
	want := core.DeleteOldJobsParams{States: states, MaxAge: 7 * 24 * time.Hour, BatchSize: 100}
	gomock.InOrder(
		repo.EXPECT().DeleteOlderThan(gomock.Any(), want).Return(int64(12), nil),
		repo.EXPECT().DeleteOlderThan(gomock.Any(), want).Return(int64(0), nil),
	)

	n, err := svc.CleanupOldJobs(context.Background(), states, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestMaintenanceService_CleanupOldJobsValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := newTestMaintenance(t, mocks.NewMockJobRepository(ctrl), nil)

	_, err := svc.CleanupOldJobs(context.Background(), nil, 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CleanupOldJobs(context.Background(), []model.JobState{model.JobStateDone}, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestMaintenanceService_DrainStopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := newTestMaintenance(t, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	repo.EXPECT().ResyncOutdated(gomock.Any(), 100).DoAndReturn(func(context.Context, int) (int64, error) {
		cancel()
		return 100, nil
	})

	n, err := svc.ResyncOutdatedJobs(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(100), n)
}

func TestMaintenanceService_RunOnceEmitsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	rec := &statsd.Recorder{}

	queue, err := NewQueueService(QueueServiceOptions{Repo: repo, Cache: cache, CountsTTL: time.Minute})
	require.NoError(t, err)
	svc, err := NewMaintenanceService(MaintenanceServiceOptions{
		Repo:       repo,
		Config:     testMaintenanceConfig(),
		MaxRetries: 3,
		Queue:      queue,
		Metrics:    rec,
	})
	require.NoError(t, err)

	gomock.InOrder(
		repo.EXPECT().RequeueFailed(gomock.Any(), gomock.Any()).Return(int64(2), nil),
		repo.EXPECT().RequeueFailed(gomock.Any(), gomock.Any()).Return(int64(0), nil),
	)
	repo.EXPECT().ResyncOutdated(gomock.Any(), 100).Return(int64(0), nil)
	repo.EXPECT().DeleteOlderThan(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	cache.EXPECT().Delete(gomock.Any(), StateCountsCacheKey).Return(true, nil)

	require.NoError(t, svc.RunOnce(context.Background()))

	sweeps := rec.Find("maintenance.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, "success", sweeps[0].Tags["result"])

	ops := rec.Find("maintenance.operation")
	require.Len(t, ops, 3)
	results := map[string]string{}
	for _, s := range ops {
		results[s.Tags["operation"]] = s.Tags["result"]
	}
	assert.Equal(t, map[string]string{
		"retry_failed":    "success",
		"resync_outdated": "noop",
		"cleanup":         "noop",
	}, results)

	affected := rec.Find("maintenance.jobs_affected")
	require.Len(t, affected, 1)
	assert.InDelta(t, 2, affected[0].Value, 0)
	assert.Len(t, rec.Find("maintenance.last_success_epoch"), 1)
}

func TestMaintenanceService_RunOnceContinuesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	rec := &statsd.Recorder{}
	svc := newTestMaintenance(t, repo, rec)

	repo.EXPECT().RequeueFailed(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))
	repo.EXPECT().ResyncOutdated(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	repo.EXPECT().DeleteOlderThan(gomock.Any(), gomock.Any()).Return(int64(0), nil)

	err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry failed jobs")
	assert.Contains(t, err.Error(), "db down")

	sweeps := rec.Find("maintenance.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, "error", sweeps[0].Tags["result"])
	assert.Empty(t, rec.Find("maintenance.last_success_epoch"))
}

func TestMaintenanceService_RunOnceAllCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := newTestMaintenance(t, repo, nil)

	repo.EXPECT().RequeueFailed(gomock.Any(), gomock.Any()).Return(int64(0), context.Canceled)
	repo.EXPECT().ResyncOutdated(gomock.Any(), gomock.Any()).Return(int64(0), context.Canceled)
	repo.EXPECT().DeleteOlderThan(gomock.Any(), gomock.Any()).Return(int64(0), context.Canceled)

	err := svc.RunOnce(context.Background())
	assert.Equal(t, context.Canceled, err)
}

func TestMaintenanceService_RunRejectsZeroInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, err := NewMaintenanceService(MaintenanceServiceOptions{
		Repo:       mocks.NewMockJobRepository(ctrl),
		MaxRetries: 1,
	})
	require.NoError(t, err)
	require.Error(t, svc.Run(context.Background()))
}

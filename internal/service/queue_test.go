package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/translation-queue/internal/domain/model"
	"github.com/target/translation-queue/internal/mocks"
	"github.com/target/translation-queue/internal/observability/statsd"
)

func TestNewQueueService(t *testing.T) {
	_, err := NewQueueService(QueueServiceOptions{})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	svc, err := NewQueueService(QueueServiceOptions{Repo: mocks.NewMockJobRepository(ctrl)})
	require.NoError(t, err)
	assert.False(t, svc.cachingEnabled(), "caching needs both a cache and a TTL")
}

func TestQueueService_Enqueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo, Cache: cache, CountsTTL: time.Minute})
	require.NoError(t, err)

	req := model.EnqueueRequest{
		ObjectType: model.ObjectTypePost,
		ObjectID:   "42",
		Field:      "post_content",
		HashSource: "abc",
	}
	want := &model.Job{ID: "job-1", ObjectType: model.ObjectTypePost, ObjectID: "42", Field: "post_content", State: model.JobStatePending}

	repo.EXPECT().Enqueue(gomock.Any(), req).Return(want, nil)
	cache.EXPECT().Delete(gomock.Any(), StateCountsCacheKey).Return(true, nil)

	job, err := svc.Enqueue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, want, job)
}

func TestQueueService_EnqueueError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo})
	require.NoError(t, err)

	repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err = svc.Enqueue(context.Background(), model.EnqueueRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue job")
}

func TestQueueService_MarkOutdated(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo, Cache: cache, CountsTTL: time.Minute})
	require.NoError(t, err)

	repo.EXPECT().MarkOutdated(gomock.Any(), model.ObjectTypeTerm, "7").Return(int64(3), nil)
	cache.EXPECT().Delete(gomock.Any(), StateCountsCacheKey).Return(true, nil)

	n, err := svc.MarkOutdated(context.Background(), model.ObjectTypeTerm, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Nothing changed, nothing to invalidate.
	repo.EXPECT().MarkOutdated(gomock.Any(), model.ObjectTypeTerm, "8").Return(int64(0), nil)
	n, err = svc.MarkOutdated(context.Background(), model.ObjectTypeTerm, "8")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueService_GetStateCounts_Uncached(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	rec := &statsd.Recorder{}
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo, Metrics: rec})
	require.NoError(t, err)

	counts := model.NewStateCounts()
	counts[model.JobStatePending] = 4
	counts[model.JobStateError] = 1
	repo.EXPECT().CountByState(gomock.Any()).Return(counts, nil)

	got, err := svc.GetStateCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), got[model.JobStatePending])
	assert.Equal(t, int64(5), got.Total())
	assert.Len(t, rec.Find("queue.depth"), len(model.AllJobStates()))

	got[model.JobStatePending] = 99
	assert.Equal(t, int64(4), counts[model.JobStatePending], "callers get a copy")
}

func TestQueueService_GetStateCounts_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo, Cache: cache, CountsTTL: time.Minute})
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]int64{"pending": 2, "done": 8})
	require.NoError(t, err)
	cache.EXPECT().Get(gomock.Any(), StateCountsCacheKey).Return(raw, nil)

	got, err := svc.GetStateCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got[model.JobStatePending])
	assert.Equal(t, int64(8), got[model.JobStateDone])
	assert.Equal(t, int64(0), got[model.JobStateOutdated], "missing states are zero")
}

func TestQueueService_GetStateCounts_CacheMissStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo, Cache: cache, CountsTTL: 30 * time.Second})
	require.NoError(t, err)

	counts := model.NewStateCounts()
	counts[model.JobStateDone] = 3

	cache.EXPECT().Get(gomock.Any(), StateCountsCacheKey).Return(nil, nil)
	repo.EXPECT().CountByState(gomock.Any()).Return(counts, nil)
	cache.EXPECT().Set(gomock.Any(), StateCountsCacheKey, gomock.Any(), 30*time.Second).
		DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
			var decoded map[string]int64
			require.NoError(t, json.Unmarshal(value, &decoded))
			assert.Equal(t, int64(3), decoded["done"])
			return nil
		})

	got, err := svc.GetStateCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got[model.JobStateDone])
}

func TestQueueService_GetStateCounts_CacheErrorsFallBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo, Cache: cache, CountsTTL: time.Minute})
	require.NoError(t, err)

	cache.EXPECT().Get(gomock.Any(), StateCountsCacheKey).Return([]byte("{not json"), nil)
	repo.EXPECT().CountByState(gomock.Any()).Return(model.NewStateCounts(), nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	got, err := svc.GetStateCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Total())
}

func TestQueueService_GetStateCounts_CollapsesConcurrentCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo})
	require.NoError(t, err)

	release := make(chan struct{})
	entered := make(chan struct{})
	repo.EXPECT().CountByState(gomock.Any()).
		DoAndReturn(func(context.Context) (model.StateCounts, error) {
			close(entered)
			<-release
			counts := model.NewStateCounts()
			counts[model.JobStatePending] = 1
			return counts, nil
		}).Times(1)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]model.StateCounts, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = svc.GetStateCounts(context.Background())
	}()
	<-entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.GetStateCounts(context.Background())
		}(i)
	}
	// Give the followers time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, r := range results {
		assert.Equal(t, int64(1), r[model.JobStatePending], "caller %d", i)
	}
}

func TestQueueService_GetStateCounts_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc, err := NewQueueService(QueueServiceOptions{Repo: repo})
	require.NoError(t, err)

	repo.EXPECT().CountByState(gomock.Any()).Return(nil, errors.New("db down"))

	_, err = svc.GetStateCounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count jobs by state")
}

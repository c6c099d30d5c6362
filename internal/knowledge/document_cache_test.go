package knowledge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry() *DocumentEntry {
	index, _ := BuildVectorIndex([][]float32{{1, 0}})
	return &DocumentEntry{
		Chunks: []Chunk{{ID: 0, Text: "coverage clause", Source: "chunk_0"}},
		Index:  index,
	}
}

func TestDocumentKeyDeterministic(t *testing.T) {
	url := "https://example.com/policy.pdf"

	assert.Equal(t, DocumentKey(url), DocumentKey(url))
	assert.NotEqual(t, DocumentKey(url), DocumentKey(url+"?v=2"))
	assert.Len(t, DocumentKey(url), 64)
}

func TestDocumentCacheHitFlag(t *testing.T) {
	cache := NewDocumentCache()
	ctx := context.Background()

	entry, hit, err := cache.GetOrCreate(ctx, "k1", func(ctx context.Context) (*DocumentEntry, error) {
		return testEntry(), nil
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, hit)

	again, hit, err := cache.GetOrCreate(ctx, "k1", func(ctx context.Context) (*DocumentEntry, error) {
		t.Fatal("ingest should not run on cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, entry, again)
}

func TestDocumentCacheSingleFlight(t *testing.T) {
	cache := NewDocumentCache()
	ctx := context.Background()

	var ingestCount int32
	ingest := func(ctx context.Context) (*DocumentEntry, error) {
		atomic.AddInt32(&ingestCount, 1)
		time.Sleep(50 * time.Millisecond)
		return testEntry(), nil
	}

	const workers = 8
	entries := make([]*DocumentEntry, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, _, err := cache.GetOrCreate(ctx, "shared", ingest)
			assert.NoError(t, err)
			entries[i] = entry
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ingestCount))
	for i := 1; i < workers; i++ {
		assert.Same(t, entries[0], entries[i])
	}
}

func TestDocumentCacheErrorNotCached(t *testing.T) {
	cache := NewDocumentCache()
	ctx := context.Background()

	boom := errors.New("下载失败")
	_, _, err := cache.GetOrCreate(ctx, "k1", func(ctx context.Context) (*DocumentEntry, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// 失败不留存，重试可以成功
	entry, hit, err := cache.GetOrCreate(ctx, "k1", func(ctx context.Context) (*DocumentEntry, error) {
		return testEntry(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, entry)
}

func TestDocumentCacheStatsAndClear(t *testing.T) {
	cache := NewDocumentCache()
	ctx := context.Background()

	documents, indexes := cache.Stats()
	assert.Equal(t, 0, documents)
	assert.Equal(t, 0, indexes)

	_, _, err := cache.GetOrCreate(ctx, "a", func(ctx context.Context) (*DocumentEntry, error) {
		return testEntry(), nil
	})
	require.NoError(t, err)
	_, _, err = cache.GetOrCreate(ctx, "b", func(ctx context.Context) (*DocumentEntry, error) {
		return &DocumentEntry{Chunks: []Chunk{{ID: 0, Text: "x"}}}, nil
	})
	require.NoError(t, err)

	documents, indexes = cache.Stats()
	assert.Equal(t, 2, documents)
	assert.Equal(t, 1, indexes)

	cache.Clear()
	documents, indexes = cache.Stats()
	assert.Equal(t, 0, documents)
	assert.Equal(t, 0, indexes)
}

func TestDocumentCacheWaiterRespectsContext(t *testing.T) {
	cache := NewDocumentCache()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _, _ = cache.GetOrCreate(context.Background(), "slow", func(ctx context.Context) (*DocumentEntry, error) {
			close(started)
			<-release
			return testEntry(), nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := cache.GetOrCreate(ctx, "slow", func(ctx context.Context) (*DocumentEntry, error) {
		return testEntry(), nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

package knowledge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/policygenius/backend-go/internal/errors"
)

const policyText = `Hospitalization expenses for medical treatment are covered up to the sum insured stated in the schedule.

A waiting period of 36 months applies to all pre-existing diseases from the first policy inception.

The following are excluded from this policy: cosmetic surgery, plastic surgery, and dental treatment unless caused by accident.

Claims must be intimated within 30 days of discharge along with all supporting documents.`

func newTestServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	}))
}

func newTestService(embedder Embedder) *QueryService {
	if embedder == nil {
		embedder = NewLocalEmbedder()
	}
	return NewQueryService(
		NewFetcher(5*time.Second),
		NewTextExtractor(),
		NewChunker(1000, 200),
		embedder,
		NewRuleBasedSynthesizer(),
		NewDocumentCache(),
		5,
	)
}

func TestQueryServiceAnswersQuestions(t *testing.T) {
	server := newTestServer(t, policyText, nil)
	defer server.Close()

	service := newTestService(nil)
	result, err := service.Process(context.Background(), server.URL, []string{
		"Is medical treatment covered?",
		"What is the waiting period for pre-existing diseases?",
	})
	require.NoError(t, err)

	require.Len(t, result.Answers, 2)
	assert.Contains(t, result.Answers[0], "coverage")
	assert.Contains(t, result.Answers[1], "Waiting periods are specified")
	assert.NotEmpty(t, result.SourceChunks)
	assert.GreaterOrEqual(t, result.ProcessingTime, 0.0)
}

func TestQueryServiceCachesDocument(t *testing.T) {
	var fetches int32
	server := newTestServer(t, policyText, &fetches)
	defer server.Close()

	service := newTestService(nil)
	ctx := context.Background()

	_, err := service.Process(ctx, server.URL, []string{"What exclusions apply?"})
	require.NoError(t, err)
	_, err = service.Process(ctx, server.URL, []string{"How do I file a claim?"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	documents, indexes := service.Cache().Stats()
	assert.Equal(t, 1, documents)
	assert.Equal(t, 1, indexes)
}

func TestQueryServiceConcurrentSameDocument(t *testing.T) {
	var fetches int32
	server := newTestServer(t, policyText, &fetches)
	defer server.Close()

	service := newTestService(nil)

	var wg sync.WaitGroup
	results := make([]*QueryResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := service.Process(context.Background(), server.URL,
				[]string{"Is medical treatment covered?"})
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].Answers, results[1].Answers)
}

func TestQueryServiceServesStaleContentForSameURL(t *testing.T) {
	var body atomic.Value
	body.Store(policyText)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body.Load().(string)))
	}))
	defer server.Close()

	service := newTestService(nil)
	ctx := context.Background()

	first, err := service.Process(ctx, server.URL, []string{"What exclusions apply?"})
	require.NoError(t, err)

	// 同一URL后面的内容变化不会被感知，继续命中旧条目
	body.Store("Completely different policy with no exclusions at all.")
	second, err := service.Process(ctx, server.URL, []string{"What exclusions apply?"})
	require.NoError(t, err)

	assert.Equal(t, first.Answers, second.Answers)
}

func TestQueryServiceEmptyDocument(t *testing.T) {
	server := newTestServer(t, "   \n\n   ", nil)
	defer server.Close()

	service := newTestService(nil)
	_, err := service.Process(context.Background(), server.URL, []string{"Is anything covered?"})
	require.Error(t, err)

	require.True(t, apperrors.IsAppError(err))
	assert.Equal(t, apperrors.ErrCodeExtractionFailed, apperrors.GetAppError(err).Code)

	// 失败的摄取不进缓存
	documents, _ := service.Cache().Stats()
	assert.Equal(t, 0, documents)
}

func TestQueryServiceFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := newTestService(nil)
	_, err := service.Process(context.Background(), server.URL, []string{"Is anything covered?"})
	require.Error(t, err)

	require.True(t, apperrors.IsAppError(err))
	assert.Equal(t, apperrors.ErrCodeFetchFailed, apperrors.GetAppError(err).Code)
}

// mismatchedEmbedder 摄取走真实实现，之后的查询返回维度不符的向量
type mismatchedEmbedder struct {
	inner Embedder
	calls int32
}

func (m *mismatchedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if atomic.AddInt32(&m.calls, 1) == 1 {
		return m.inner.EmbedBatch(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, 8)
	}
	return vectors, nil
}

func (m *mismatchedEmbedder) Dimensions() int { return m.inner.Dimensions() }
func (m *mismatchedEmbedder) Ready() bool     { return m.inner.Ready() }

func TestQueryServiceNoRelevantChunks(t *testing.T) {
	server := newTestServer(t, policyText, nil)
	defer server.Close()

	// 查询向量与索引维度不符，检索结果为空
	service := newTestService(&mismatchedEmbedder{inner: NewLocalEmbedder()})

	result, err := service.Process(context.Background(), server.URL, []string{
		"Is medical treatment covered?",
	})
	require.NoError(t, err)

	require.Len(t, result.Answers, 1)
	assert.Equal(t, NoRelevantInformation, result.Answers[0])
	assert.Empty(t, result.SourceChunks)
}

// flakyEmbedder 对指定问题文本返回错误，其余走本地实现
type flakyEmbedder struct {
	inner   Embedder
	failOn  string
	batches int32
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&f.batches, 1)
	if len(texts) == 1 && texts[0] == f.failOn {
		return nil, errors.New("embedding backend unavailable")
	}
	return f.inner.EmbedBatch(ctx, texts)
}

func (f *flakyEmbedder) Dimensions() int { return f.inner.Dimensions() }
func (f *flakyEmbedder) Ready() bool     { return f.inner.Ready() }

func TestQueryServiceQueryEmbeddingFailureDegrades(t *testing.T) {
	server := newTestServer(t, policyText, nil)
	defer server.Close()

	embedder := &flakyEmbedder{inner: NewLocalEmbedder(), failOn: "What is the claim process?"}
	service := newTestService(embedder)

	result, err := service.Process(context.Background(), server.URL, []string{
		"What is the claim process?",
		"What exclusions apply?",
	})
	require.NoError(t, err)

	require.Len(t, result.Answers, 2)
	assert.Contains(t, result.Answers[0], "embedding failure")
	assert.Contains(t, result.Answers[1], "exclusions")
}

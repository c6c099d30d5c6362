package knowledge

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/policygenius/backend-go/internal/errors"
	"github.com/policygenius/backend-go/internal/logger"
	"github.com/policygenius/backend-go/internal/metrics"
)

// NoRelevantInformation 检索为空时的固定回答
const NoRelevantInformation = "No relevant information found in the policy document for this question."

const embeddingDegradedAnswer = "Unable to process this question due to an embedding failure. Please retry."

// QueryResult 一次批量问答的结果
type QueryResult struct {
	Answers        []string
	SourceChunks   []RetrievalResult
	ProcessingTime float64
}

// QueryService 问答主流程编排：文档摄取、缓存、检索与回答生成
type QueryService struct {
	fetcher     *Fetcher
	extractor   *TextExtractor
	chunker     *Chunker
	embedder    Embedder
	synthesizer Synthesizer
	cache       *DocumentCache
	topK        int
}

// NewQueryService 组装问答服务
func NewQueryService(fetcher *Fetcher, extractor *TextExtractor, chunker *Chunker,
	embedder Embedder, synthesizer Synthesizer, cache *DocumentCache, topK int) *QueryService {
	if topK <= 0 {
		topK = 5
	}
	return &QueryService{
		fetcher:     fetcher,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		synthesizer: synthesizer,
		cache:       cache,
		topK:        topK,
	}
}

// Cache 暴露底层文档缓存，供管理接口查询与清理
func (s *QueryService) Cache() *DocumentCache {
	return s.cache
}

// Process 处理一份文档上的一批问题。
// 文档级失败（下载、提取、向量化）整体报错；
// 单个问题的查询向量化失败只降级该问题的回答，不影响其余问题。
func (s *QueryService) Process(ctx context.Context, documentURL string, questions []string) (*QueryResult, error) {
	start := time.Now()

	key := DocumentKey(documentURL)
	entry, hit, err := s.cache.GetOrCreate(ctx, key, func(ctx context.Context) (*DocumentEntry, error) {
		return s.ingest(ctx, documentURL)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		metrics.CacheHits.Inc()
		logger.Info("Using cached document", zap.String("key", key))
	} else {
		metrics.CacheMisses.Inc()
		metrics.DocumentsIngested.Inc()
		logger.Info("Processing new document",
			zap.String("key", key),
			zap.Int("chunks", len(entry.Chunks)))
	}

	answers := make([]string, 0, len(questions))
	sources := make([]RetrievalResult, 0)

	for _, question := range questions {
		retrieved, qerr := s.retrieve(ctx, entry, question)
		if qerr != nil {
			logger.Warn("查询向量化失败，降级回答该问题",
				zap.String("question", question), zap.Error(qerr))
			answers = append(answers, embeddingDegradedAnswer)
			continue
		}

		if len(retrieved) == 0 {
			answers = append(answers, NoRelevantInformation)
			continue
		}

		answers = append(answers, s.synthesizer.Answer(ctx, question, retrieved))
		sources = append(sources, retrieved...)
	}

	elapsed := time.Since(start).Seconds()
	logger.Info("Query processed successfully",
		zap.Int("questions", len(questions)),
		zap.Float64("seconds", elapsed))

	return &QueryResult{
		Answers:        answers,
		SourceChunks:   sources,
		ProcessingTime: elapsed,
	}, nil
}

// ingest 下载、提取、切分、向量化一份文档并构建索引
func (s *QueryService) ingest(ctx context.Context, documentURL string) (*DocumentEntry, error) {
	data, contentType, err := s.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(data, contentType)
	if err != nil {
		return nil, apperrors.NewExtractionError("failed to extract document text").WithCause(err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewExtractionError("document contains no extractable text")
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, apperrors.NewExtractionError("document produced no text chunks")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, apperrors.NewEmbeddingError("failed to embed document chunks").WithCause(err)
	}

	index, err := BuildVectorIndex(vectors)
	if err != nil {
		return nil, apperrors.NewEmbeddingError("failed to build vector index").WithCause(err)
	}

	logger.Info("Document ingested",
		zap.String("url", documentURL),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", s.embedder.Dimensions()))

	return &DocumentEntry{
		Chunks:  chunks,
		Index:   index,
		RawText: text,
	}, nil
}

// retrieve 向量化问题并返回top-K命中的chunk
func (s *QueryService) retrieve(ctx context.Context, entry *DocumentEntry, question string) ([]RetrievalResult, error) {
	vectors, err := s.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, apperrors.NewEmbeddingError("unexpected query embedding count")
	}

	hits := entry.Index.Search(vectors[0], s.topK)

	retrieved := make([]RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(entry.Chunks) {
			continue
		}
		retrieved = append(retrieved, RetrievalResult{
			Chunk: entry.Chunks[hit.Position],
			Score: hit.Score,
		})
	}
	return retrieved, nil
}

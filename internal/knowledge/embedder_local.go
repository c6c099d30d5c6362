package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// localDimensions 本地向量维度，与 all-MiniLM-L6-v2 对齐
const localDimensions = 384

// LocalEmbedder 基于特征哈希的本地确定性向量化实现。
// 没有配置远程Embedding后端时使用：同一输入永远得到同一向量，
// 维度固定，不需要先在语料上拟合词表。
type LocalEmbedder struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewLocalEmbedder 创建本地向量化器
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *LocalEmbedder) Dimensions() int {
	return localDimensions
}

func (e *LocalEmbedder) Ready() bool {
	return true
}

// embed 词频哈希到固定桶位，符号位消除哈希碰撞偏置，最后L2归一化
func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float32, localDimensions)
	tokens := e.tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % localDimensions)
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func (e *LocalEmbedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "being", "it", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

package knowledge

import (
	"errors"
	"math"
	"sort"
)

// Hit 向量检索命中：Position 即插入顺序位置（等于chunk ID），Score ∈ [-1, 1]
type Hit struct {
	Position int
	Score    float64
}

// VectorIndex 单文档平铺内积索引。
// 向量在构建时做L2归一化，内积即余弦相似度。
// 构建后只读，可被并发读取方无锁共享。
type VectorIndex struct {
	dimension int
	vectors   [][]float32
}

// BuildVectorIndex 归一化并按插入顺序保存向量。
// 插入顺序必须与chunk ID一致，检索返回的位置才能直接映射回chunk。
func BuildVectorIndex(vectors [][]float32) (*VectorIndex, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to index")
	}

	dimension := len(vectors[0])
	if dimension == 0 {
		return nil, errors.New("zero-dimension vector")
	}

	stored := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dimension {
			return nil, errors.New("vector dimension mismatch")
		}
		stored[i] = normalizeL2(vec)
	}

	return &VectorIndex{
		dimension: dimension,
		vectors:   stored,
	}, nil
}

// Size 返回索引内向量数量
func (idx *VectorIndex) Size() int {
	return len(idx.vectors)
}

// Search 返回与query内积最大的k个位置，按得分降序，
// 得分相同时位置小者在前。k大于索引规模时收敛到索引规模。
func (idx *VectorIndex) Search(query []float32, k int) []Hit {
	if k <= 0 || len(idx.vectors) == 0 || len(query) != idx.dimension {
		return nil
	}
	if k > len(idx.vectors) {
		k = len(idx.vectors)
	}

	normalized := normalizeL2(query)
	hits := make([]Hit, len(idx.vectors))
	for i, vec := range idx.vectors {
		hits[i] = Hit{Position: i, Score: dotProduct(vec, normalized)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Position < hits[j].Position
		}
		return hits[i].Score > hits[j].Score
	})

	return hits[:k]
}

// normalizeL2 返回单位长度副本；零向量原样拷贝返回
func normalizeL2(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

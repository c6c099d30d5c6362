package knowledge

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder()
	ctx := context.Background()

	a, err := e.EmbedBatch(ctx, []string{"hospitalization coverage for surgical treatment"})
	require.NoError(t, err)
	b, err := e.EmbedBatch(ctx, []string{"hospitalization coverage for surgical treatment"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], e.Dimensions())
}

func TestLocalEmbedderUnitNorm(t *testing.T) {
	e := NewLocalEmbedder()

	vectors, err := e.EmbedBatch(context.Background(), []string{
		"waiting period for pre-existing diseases",
	})
	require.NoError(t, err)

	var norm float64
	for _, v := range vectors[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalEmbedderSimilarTextScoresHigher(t *testing.T) {
	e := NewLocalEmbedder()

	vectors, err := e.EmbedBatch(context.Background(), []string{
		"maternity benefits cover childbirth expenses",
		"maternity benefits for childbirth",
		"claim settlement requires discharge summary",
	})
	require.NoError(t, err)

	index, err := BuildVectorIndex(vectors[:1])
	require.NoError(t, err)

	related := index.Search(vectors[1], 1)[0].Score
	unrelated := index.Search(vectors[2], 1)[0].Score
	assert.Greater(t, related, unrelated)
}

func TestLocalEmbedderStopwordOnlyText(t *testing.T) {
	e := NewLocalEmbedder()

	vectors, err := e.EmbedBatch(context.Background(), []string{"the and of in on"})
	require.NoError(t, err)

	for _, v := range vectors[0] {
		assert.Zero(t, v)
	}
}

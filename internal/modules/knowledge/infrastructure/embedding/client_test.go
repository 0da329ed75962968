package embedding

import (
	"context"
	"errors"
	"testing"

	"KnowLink/internal/modules/knowledge/domain/knowledge"

	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lenEmbedder 向量首位编码文本长度，便于校验顺序
type lenEmbedder struct {
	dim     int
	calls   int
	failErr error
}

func (f *lenEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoEmbedding.Option) ([][]float64, error) {
	f.calls++
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make([][]float64, len(texts))
	for i, txt := range texts {
		v := make([]float64, f.dim)
		v[0] = float64(len(txt))
		out[i] = v
	}
	return out, nil
}

func segments(texts ...string) []knowledge.Segment {
	segs := make([]knowledge.Segment, len(texts))
	for i, t := range texts {
		segs[i] = knowledge.Segment{Index: i, Text: t, TokenCount: len(t)}
	}
	return segs
}

func TestClientPreservesOrderAcrossBatches(t *testing.T) {
	fake := &lenEmbedder{dim: 4}
	c, err := NewClient(fake, 4, 2)
	require.NoError(t, err)

	segs := segments("a", "bb", "ccc", "dddd", "eeeee")
	vecs, err := c.EmbedSegments(context.Background(), segs)
	require.NoError(t, err)
	require.Len(t, vecs, len(segs))

	for i, seg := range segs {
		assert.Equal(t, float32(len(seg.Text)), vecs[i][0])
	}
	// 5 个片段、批大小 2，应该恰好 3 次调用
	assert.Equal(t, 3, fake.calls)
}

func TestClientDimMismatch(t *testing.T) {
	fake := &lenEmbedder{dim: 3}
	c, err := NewClient(fake, 4, 16)
	require.NoError(t, err)

	_, err = c.EmbedSegments(context.Background(), segments("text"))
	require.Error(t, err)
	assert.True(t, knowledge.IsKind(err, knowledge.KindEmbedding))
}

func TestClientWrapsProviderError(t *testing.T) {
	fake := &lenEmbedder{dim: 4, failErr: errors.New("rate limited")}
	c, err := NewClient(fake, 4, 16)
	require.NoError(t, err)

	_, err = c.EmbedSegments(context.Background(), segments("text"))
	require.Error(t, err)
	assert.True(t, knowledge.IsKind(err, knowledge.KindEmbedding))
}

func TestClientEmptyInput(t *testing.T) {
	fake := &lenEmbedder{dim: 4}
	c, err := NewClient(fake, 4, 16)
	require.NoError(t, err)

	vecs, err := c.EmbedSegments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Equal(t, 0, fake.calls)
}

func TestMockEmbedderDim(t *testing.T) {
	m := NewMockEmbedder(8)

	out, err := m.EmbedStrings(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out[0], 8)
	assert.Len(t, out[1], 8)
}

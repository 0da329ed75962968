package chunking

import (
	"strings"
	"testing"

	"KnowLink/internal/modules/knowledge/domain/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeCodec 测试用编解码器：一个字符一个 token，可逆且不依赖外部词表
type runeCodec struct{}

func (runeCodec) Encode(text string) []int {
	rs := []rune(text)
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = int(r)
	}
	return out
}

func (runeCodec) Decode(tokens []int) string {
	rs := make([]rune, len(tokens))
	for i, t := range tokens {
		rs[i] = rune(t)
	}
	return string(rs)
}

func (runeCodec) Count(text string) int { return len([]rune(text)) }

func TestTokenSplitterEmptyInput(t *testing.T) {
	s := NewTokenSplitter(runeCodec{}, 500, 100)

	segs, err := s.Split("")
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestTokenSplitterShortInputSingleSegment(t *testing.T) {
	s := NewTokenSplitter(runeCodec{}, 500, 100)
	text := strings.Repeat("a", 450)

	segs, err := s.Split(text)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, 0, segs[0].Index)
	assert.Equal(t, text, segs[0].Text)
	assert.Equal(t, 450, segs[0].TokenCount)
}

func TestTokenSplitterWindowAndOverlap(t *testing.T) {
	s := NewTokenSplitter(runeCodec{}, 500, 100)

	// 1200 个 token，窗口 500、步进 400：[0,500) [400,900) [800,1200)
	var sb strings.Builder
	for i := 0; i < 1200; i++ {
		sb.WriteRune(rune('a' + i%26))
	}
	text := sb.String()

	segs, err := s.Split(text)
	require.NoError(t, err)
	require.Len(t, segs, 3)

	for i, seg := range segs {
		assert.Equal(t, i, seg.Index)
		assert.LessOrEqual(t, seg.TokenCount, 500)
	}
	assert.Equal(t, 500, segs[0].TokenCount)
	assert.Equal(t, 500, segs[1].TokenCount)
	assert.Equal(t, 400, segs[2].TokenCount)

	// 相邻片段重叠恰好 100 个 token
	for i := 1; i < len(segs); i++ {
		prev := []rune(segs[i-1].Text)
		cur := []rune(segs[i].Text)
		assert.Equal(t, string(prev[len(prev)-100:]), string(cur[:100]))
	}
}

func TestTokenSplitterDeterministic(t *testing.T) {
	s := NewTokenSplitter(runeCodec{}, 500, 100)
	text := strings.Repeat("知识摄取管道测试文本。", 200)

	first, err := s.Split(text)
	require.NoError(t, err)
	second, err := s.Split(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenSplitterInvalidOverlapFallsBack(t *testing.T) {
	// 重叠不小于窗口时回退到窗口的一半，保证窗口可以推进
	s := NewTokenSplitter(runeCodec{}, 100, 100)
	assert.Equal(t, 50, s.ChunkOverlap)

	segs, err := s.Split(strings.Repeat("x", 300))
	require.NoError(t, err)
	assert.NotEmpty(t, segs)
}

func TestTokenSplitterNilCodec(t *testing.T) {
	s := NewTokenSplitter(nil, 500, 100)

	_, err := s.Split("some text")
	require.Error(t, err)
	assert.True(t, knowledge.IsKind(err, knowledge.KindSplit))
}

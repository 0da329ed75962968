package chunking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"KnowLink/internal/modules/knowledge/domain/knowledge"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// TokenSplitter 把文本切分为固定 token 数、带重叠的片段序列。
// 默认窗口模式：一次编码后按窗口滑动，保证每段不超过 chunkSize 个 token，
// 相邻片段重叠恰好 chunkOverlap 个 token（末段可能不足）。
// 同一输入永远得到同一片段序列。
type TokenSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	codec        TokenCodec
	useRecursive bool

	initOnce      sync.Once
	initErr       error
	recursiveImpl document.Transformer
}

// NewTokenSplitter 创建窗口模式切片器，并设置切片大小与重叠长度
func NewTokenSplitter(codec TokenCodec, size, overlap int) *TokenSplitter {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &TokenSplitter{ChunkSize: size, ChunkOverlap: overlap, codec: codec}
}

// NewRecursiveTokenSplitter 创建递归模式切片器，按分隔符就近断句，
// 长度口径仍然是 token 数
func NewRecursiveTokenSplitter(codec TokenCodec, size, overlap int) *TokenSplitter {
	s := NewTokenSplitter(codec, size, overlap)
	s.useRecursive = true
	return s
}

// Split 切分文本。空输入产出空序列而不是错误；只有分词失败才报错。
func (s *TokenSplitter) Split(text string) ([]knowledge.Segment, error) {
	if s == nil || s.codec == nil {
		return nil, knowledge.NewSplitError(errors.New("tokenizer not initialized"))
	}
	if text == "" {
		return []knowledge.Segment{}, nil
	}
	if s.useRecursive {
		return s.splitRecursive(text)
	}

	tokens := s.codec.Encode(text)
	if len(tokens) == 0 {
		return []knowledge.Segment{}, nil
	}

	step := s.ChunkSize - s.ChunkOverlap
	// 构造函数已保证 step > 0，这里兜底避免窗口无法推进
	if step <= 0 {
		step = 1
	}

	segs := make([]knowledge.Segment, 0, len(tokens)/step+1)
	for i := 0; i < len(tokens); i += step {
		end := i + s.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[i:end]
		segs = append(segs, knowledge.Segment{
			Index:      len(segs),
			Text:       s.codec.Decode(window),
			TokenCount: len(window),
		})
		if end == len(tokens) {
			break
		}
	}
	return segs, nil
}

func (s *TokenSplitter) splitRecursive(text string) ([]knowledge.Segment, error) {
	s.initOnce.Do(func() {
		impl, err := recursive.NewSplitter(context.Background(), &recursive.Config{
			ChunkSize:   s.ChunkSize,
			OverlapSize: s.ChunkOverlap,
			Separators:  []string{"\n\n", "\n", "。", "！", "？", "；", "，", " "},
			LenFunc: func(t string) int {
				return s.codec.Count(t)
			},
			KeepType: recursive.KeepTypeEnd,
		})
		if err != nil {
			s.initErr = err
			return
		}
		s.recursiveImpl = impl
	})
	if s.initErr != nil {
		return nil, knowledge.NewSplitError(s.initErr)
	}
	if s.recursiveImpl == nil {
		return nil, knowledge.NewSplitError(fmt.Errorf("recursive splitter not initialized"))
	}

	frags, err := s.recursiveImpl.Transform(context.Background(), []*schema.Document{{Content: text}})
	if err != nil {
		return nil, knowledge.NewSplitError(err)
	}

	segs := make([]knowledge.Segment, 0, len(frags))
	for _, f := range frags {
		if f == nil || f.Content == "" {
			continue
		}
		segs = append(segs, knowledge.Segment{
			Index:      len(segs),
			Text:       f.Content,
			TokenCount: s.codec.Count(f.Content),
		})
	}
	return segs, nil
}

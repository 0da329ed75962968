package embedding

import (
	"context"
	"fmt"

	"KnowLink/internal/modules/knowledge/domain/knowledge"

	"github.com/cloudwego/eino/components/embedding"
)

// Client 包装嵌入模型：按批提交片段、保持输入顺序、校验向量维度。
// 失败统一归为 embedding 类错误，本层不做重试。
type Client struct {
	embedder  embedding.Embedder
	dim       int
	batchSize int
}

func NewClient(embedder embedding.Embedder, dim, batchSize int) (*Client, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid vector dim %d", dim)
	}
	if batchSize <= 0 {
		batchSize = 16
	}
	return &Client{embedder: embedder, dim: dim, batchSize: batchSize}, nil
}

func (c *Client) Dim() int { return c.dim }

// EmbedSegments 计算每个片段的向量，输出顺序与输入一致
func (c *Client) EmbedSegments(ctx context.Context, segs []knowledge.Segment) ([][]float32, error) {
	if len(segs) == 0 {
		return [][]float32{}, nil
	}

	vecs := make([][]float32, 0, len(segs))
	for start := 0; start < len(segs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(segs) {
			end = len(segs)
		}

		texts := make([]string, 0, end-start)
		for _, seg := range segs[start:end] {
			texts = append(texts, seg.Text)
		}

		out, err := c.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return nil, knowledge.NewEmbeddingError(err)
		}
		if len(out) != len(texts) {
			return nil, knowledge.NewEmbeddingError(fmt.Errorf("embedding count mismatch got=%d want=%d", len(out), len(texts)))
		}

		for _, v64 := range out {
			if len(v64) != c.dim {
				return nil, knowledge.NewEmbeddingError(fmt.Errorf("vector dim mismatch got=%d want=%d", len(v64), c.dim))
			}
			v32 := make([]float32, len(v64))
			for j := range v64 {
				v32[j] = float32(v64[j])
			}
			vecs = append(vecs, v32)
		}
	}
	return vecs, nil
}

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/domain/repository"
	"KnowLink/pkg/zlog"

	"go.uber.org/zap"
)

// DocumentLoader 按地址抓取原始文档字节
type DocumentLoader interface {
	Load(ctx context.Context, location string) ([]byte, error)
}

// DocumentParser 按文档类型把字节解析为纯文本
type DocumentParser interface {
	Parse(docType string, raw []byte) (string, error)
}

// SegmentSplitter 把文本切分为带序号的片段
type SegmentSplitter interface {
	Split(text string) ([]knowledge.Segment, error)
}

// SegmentEmbedder 计算片段向量，输出顺序与输入一致
type SegmentEmbedder interface {
	EmbedSegments(ctx context.Context, segs []knowledge.Segment) ([][]float32, error)
}

// IngestPipeline 单条知识的摄取流水线：
// 加载 -> 解析 -> 切片 -> 向量化 -> 写入向量库，伴随状态推进。
// 任一阶段失败即置 Fail 并记录脱敏后的错误信息，不再执行后续阶段。
type IngestPipeline struct {
	repo      repository.KnowledgeRepository
	loader    DocumentLoader
	parsers   DocumentParser
	splitter  SegmentSplitter
	embedder  SegmentEmbedder
	vs        repository.VectorStore
	vectorDim int
}

func NewIngestPipeline(
	repo repository.KnowledgeRepository,
	loader DocumentLoader,
	parsers DocumentParser,
	splitter SegmentSplitter,
	embedder SegmentEmbedder,
	vs repository.VectorStore,
	vectorDim int,
) (*IngestPipeline, error) {
	if repo == nil || loader == nil || parsers == nil || splitter == nil || embedder == nil || vs == nil {
		return nil, errors.New("pipeline dependency is nil")
	}
	if vectorDim <= 0 {
		return nil, fmt.Errorf("invalid vector dim %d", vectorDim)
	}
	return &IngestPipeline{
		repo:      repo,
		loader:    loader,
		parsers:   parsers,
		splitter:  splitter,
		embedder:  embedder,
		vs:        vs,
		vectorDim: vectorDim,
	}, nil
}

// Run 处理一条知识。返回的 error 只用于调用方记账，
// 状态与错误信息已经写回存储。
func (p *IngestPipeline) Run(ctx context.Context, itemID int64, indexName string) error {
	item, err := p.repo.GetByID(ctx, itemID)
	if err != nil {
		zlog.Error("读取知识条目失败", zap.Int64("item_id", itemID), zap.Error(err))
		return err
	}
	if item == nil {
		zlog.Warn("知识条目不存在，跳过", zap.Int64("item_id", itemID))
		return fmt.Errorf("knowledge item %d not found", itemID)
	}
	if indexName == "" {
		indexName = item.IndexName
	}

	if err := p.runStages(ctx, item, indexName); err != nil {
		zlog.Error("知识摄取失败",
			zap.Int64("item_id", item.Id),
			zap.String("index", indexName),
			zap.String("kind", string(knowledge.KindOf(err))),
			zap.Error(err))
		p.changeStatus(ctx, item.Id, knowledge.StatusFail, scrubErrMsg(err.Error()))
		return err
	}

	p.changeStatus(ctx, item.Id, knowledge.StatusComplete, "")
	return nil
}

func (p *IngestPipeline) runStages(ctx context.Context, item *knowledge.KnowledgeItem, indexName string) error {
	raw, err := p.loader.Load(ctx, item.FileUrl)
	if err != nil {
		return err
	}

	text, err := p.parsers.Parse(item.Type, raw)
	if err != nil {
		return err
	}

	p.changeStatus(ctx, item.Id, knowledge.StatusSplitting, "")

	segs, err := p.splitter.Split(text)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		// 空文档合法：没有可入库的内容，直接完成
		zlog.Info("文档无有效内容", zap.Int64("item_id", item.Id))
		return nil
	}

	// 先确认向量库可写，存储配置问题在向量化之前暴露
	if err = p.vs.EnsureIndex(ctx, indexName, p.vectorDim); err != nil {
		return err
	}

	p.changeStatus(ctx, item.Id, knowledge.StatusTraining, "")

	vecs, err := p.embedder.EmbedSegments(ctx, segs)
	if err != nil {
		return err
	}
	if len(vecs) != len(segs) {
		return knowledge.NewEmbeddingError(fmt.Errorf("vector count mismatch got=%d want=%d", len(vecs), len(segs)))
	}

	entries := make([]repository.SegmentEntry, 0, len(segs))
	for i, seg := range segs {
		entries = append(entries, repository.SegmentEntry{
			ID:         segmentVectorID(indexName, item.Id, seg.Index),
			ItemId:     item.Id,
			ChunkIndex: seg.Index,
			TokenCount: seg.TokenCount,
			Content:    seg.Text,
			Vector:     vecs[i],
		})
	}

	if err = p.vs.Upsert(ctx, indexName, p.vectorDim, entries); err != nil {
		return err
	}

	zlog.Info("知识摄取完成",
		zap.Int64("item_id", item.Id),
		zap.String("index", indexName),
		zap.Int("segments", len(entries)))
	return nil
}

func (p *IngestPipeline) changeStatus(ctx context.Context, itemID int64, status int8, errorMsg string) {
	if err := p.repo.UpdateStatus(ctx, itemID, status, errorMsg); err != nil {
		zlog.Warn("更新知识状态失败",
			zap.Int64("item_id", itemID),
			zap.Int8("status", status),
			zap.Error(err))
	}
}

// segmentVectorID 片段的确定性主键，重复摄取得到同一批 ID
func segmentVectorID(indexName string, itemID int64, chunkIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", indexName, itemID, chunkIndex)))
	return "kv_" + hex.EncodeToString(sum[:])[:48]
}

func scrubErrMsg(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	low := strings.ToLower(s)
	if strings.Contains(low, "api_key") || strings.Contains(low, "apikey") || strings.Contains(low, "secret") || strings.Contains(s, "sk-") {
		return "redacted"
	}
	// error_msg 列为 varchar(255)，按字符截断避免把多字节字符切成半个
	if r := []rune(s); len(r) > 255 {
		return string(r[:255])
	}
	return s
}

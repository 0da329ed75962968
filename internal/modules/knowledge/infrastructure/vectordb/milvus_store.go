package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/domain/repository"
	"KnowLink/pkg/zlog"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

const (
	fieldID         = "id"
	fieldVector     = "vector"
	fieldItemID     = "item_id"
	fieldChunkIndex = "chunk_index"
	fieldTokenCount = "token_count"
	fieldContent    = "content"

	maxContentRunes = 4096
)

// MilvusStore 基于 Milvus 的向量存储实现。
// 集合按索引名惰性建立，建好后缓存维度，重复调用只做一次维度校验。
type MilvusStore struct {
	cli        mclient.Client
	enabled    bool
	metricType entity.MetricType

	mu    sync.Mutex
	ready map[string]int // indexName -> dim
}

var _ repository.VectorStore = (*MilvusStore)(nil)

func NewMilvusStore(cli mclient.Client, enabled bool, metricType string) *MilvusStore {
	mt := entity.COSINE
	switch metricType {
	case "L2":
		mt = entity.L2
	case "IP":
		mt = entity.IP
	}
	return &MilvusStore{
		cli:        cli,
		enabled:    enabled,
		metricType: mt,
		ready:      make(map[string]int),
	}
}

// EnsureIndex 确认集合可写。存储被禁用时立即报配置错误，不发起任何网络调用。
func (s *MilvusStore) EnsureIndex(ctx context.Context, indexName string, dim int) error {
	if !s.enabled || s.cli == nil {
		return knowledge.NewConfigError(errors.New("vector store disabled"))
	}
	if indexName == "" {
		return knowledge.NewConfigError(errors.New("empty index name"))
	}
	if dim <= 0 {
		return knowledge.NewConfigError(fmt.Errorf("invalid vector dim %d", dim))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if got, ok := s.ready[indexName]; ok {
		if got != dim {
			return knowledge.NewConfigError(fmt.Errorf("collection %s dim=%d, want %d", indexName, got, dim))
		}
		return nil
	}

	has, err := s.cli.HasCollection(ctx, indexName)
	if err != nil {
		return knowledge.NewStoreError(err)
	}

	if !has {
		schema := &entity.Schema{
			CollectionName: indexName,
			Description:    "KnowLink knowledge segment vectors",
			Fields: []*entity.Field{
				{
					Name:       fieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       fieldVector,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{entity.TypeParamDim: fmt.Sprintf("%d", dim)},
				},
				{
					Name:     fieldItemID,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     fieldChunkIndex,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     fieldTokenCount,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     fieldContent,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "4096",
					},
				},
			},
		}

		if err = s.cli.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return knowledge.NewStoreError(err)
		}

		idx, idxErr := entity.NewIndexAUTOINDEX(s.metricType)
		if idxErr != nil {
			return knowledge.NewStoreError(idxErr)
		}
		if err = s.cli.CreateIndex(ctx, indexName, fieldVector, idx, false); err != nil {
			return knowledge.NewStoreError(err)
		}
		if err = s.cli.LoadCollection(ctx, indexName, false); err != nil {
			return knowledge.NewStoreError(err)
		}
		zlog.Info("创建向量集合", zap.String("index", indexName), zap.Int("dim", dim))
	} else {
		// 已有集合必须与期望维度一致，否则属于配置冲突
		desc, descErr := s.cli.DescribeCollection(ctx, indexName)
		if descErr != nil {
			return knowledge.NewStoreError(descErr)
		}
		existing := 0
		if desc != nil && desc.Schema != nil {
			for _, f := range desc.Schema.Fields {
				if f.Name != fieldVector {
					continue
				}
				if v, ok := f.TypeParams[entity.TypeParamDim]; ok {
					existing, _ = strconv.Atoi(v)
				}
			}
		}
		if existing != dim {
			return knowledge.NewConfigError(fmt.Errorf("collection %s dim=%d, want %d", indexName, existing, dim))
		}
		if err = s.cli.LoadCollection(ctx, indexName, false); err != nil {
			return knowledge.NewStoreError(err)
		}
	}

	s.ready[indexName] = dim
	return nil
}

// Upsert 写入一条知识的全部片段。先删同条知识的旧片段再写入，
// 配合确定性主键保证重复摄取不会累积残片。
func (s *MilvusStore) Upsert(ctx context.Context, indexName string, dim int, entries []repository.SegmentEntry) error {
	if !s.enabled || s.cli == nil {
		return knowledge.NewConfigError(errors.New("vector store disabled"))
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(entries))
	vectors := make([][]float32, 0, len(entries))
	itemIDs := make([]int64, 0, len(entries))
	chunkIdx := make([]int64, 0, len(entries))
	tokenCnt := make([]int64, 0, len(entries))
	contents := make([]string, 0, len(entries))

	itemID := entries[0].ItemId
	for _, e := range entries {
		if e.ID == "" {
			return knowledge.NewStoreError(errors.New("segment entry missing id"))
		}
		if len(e.Vector) != dim {
			return knowledge.NewStoreError(fmt.Errorf("entry %s vector dim=%d, want %d", e.ID, len(e.Vector), dim))
		}
		ids = append(ids, e.ID)
		vectors = append(vectors, e.Vector)
		itemIDs = append(itemIDs, e.ItemId)
		chunkIdx = append(chunkIdx, int64(e.ChunkIndex))
		tokenCnt = append(tokenCnt, int64(e.TokenCount))
		contents = append(contents, truncateRunes(e.Content, maxContentRunes))
	}

	if err := s.DeleteByItem(ctx, indexName, itemID); err != nil {
		return err
	}

	_, err := s.cli.Upsert(ctx, indexName, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldVector, dim, vectors),
		entity.NewColumnInt64(fieldItemID, itemIDs),
		entity.NewColumnInt64(fieldChunkIndex, chunkIdx),
		entity.NewColumnInt64(fieldTokenCount, tokenCnt),
		entity.NewColumnVarChar(fieldContent, contents),
	)
	if err != nil {
		return knowledge.NewStoreError(err)
	}
	return nil
}

// DeleteByItem 删除某条知识在索引内的全部片段
func (s *MilvusStore) DeleteByItem(ctx context.Context, indexName string, itemID int64) error {
	if !s.enabled || s.cli == nil {
		return knowledge.NewConfigError(errors.New("vector store disabled"))
	}
	expr := fmt.Sprintf("%s == %d", fieldItemID, itemID)
	if err := s.cli.Delete(ctx, indexName, "", expr); err != nil {
		return knowledge.NewStoreError(err)
	}
	return nil
}

func (s *MilvusStore) Close(ctx context.Context) error {
	if s.cli == nil {
		return nil
	}
	return s.cli.Close()
}

func truncateRunes(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max])
}

package repository

import "context"

// SegmentEntry 写入向量库的一行：切片文本 + 向量 + 来源条目元数据
type SegmentEntry struct {
	ID         string
	ItemId     int64
	ChunkIndex int
	TokenCount int
	Content    string
	Vector     []float32
}

// VectorStore 向量存储接口。
// EnsureIndex 在存储被禁用或维度不匹配时返回 config 类错误，且必须在任何
// 网络调用之前快速失败；Upsert 对同一条目幂等，重新摄取会替换旧切片。
type VectorStore interface {
	EnsureIndex(ctx context.Context, indexName string, dim int) error
	Upsert(ctx context.Context, indexName string, dim int, entries []SegmentEntry) error
	DeleteByItem(ctx context.Context, indexName string, itemID int64) error
	Close(ctx context.Context) error
}

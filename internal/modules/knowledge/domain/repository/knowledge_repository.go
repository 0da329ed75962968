package repository

import (
	"context"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
)

// KnowledgeRepository 知识条目持久化接口。
// 管道侧只通过 UpdateStatus 做幂等的按 id 状态更新，不创建、不删除条目。
type KnowledgeRepository interface {
	Create(ctx context.Context, item *knowledge.KnowledgeItem) error
	GetByID(ctx context.Context, id int64) (*knowledge.KnowledgeItem, error)
	List(ctx context.Context, parentID int64, keywords string, page, pageSize int) ([]knowledge.KnowledgeItem, int64, error)
	UpdateStatus(ctx context.Context, id int64, status int8, errorMsg string) error
}

package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/domain/repository"

	"gorm.io/gorm"
)

type KnowledgeRepositoryImpl struct {
	db *gorm.DB
}

var _ repository.KnowledgeRepository = (*KnowledgeRepositoryImpl)(nil)

func NewKnowledgeRepositoryImpl(db *gorm.DB) *KnowledgeRepositoryImpl {
	return &KnowledgeRepositoryImpl{db: db}
}

func (r *KnowledgeRepositoryImpl) Create(ctx context.Context, item *knowledge.KnowledgeItem) error {
	if item == nil {
		return errors.New("knowledge item is nil")
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *KnowledgeRepositoryImpl) GetByID(ctx context.Context, id int64) (*knowledge.KnowledgeItem, error) {
	var item knowledge.KnowledgeItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *KnowledgeRepositoryImpl) List(ctx context.Context, parentID int64, keywords string, page, pageSize int) ([]knowledge.KnowledgeItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := r.db.WithContext(ctx).Model(&knowledge.KnowledgeItem{}).Where("parent_id = ?", parentID)
	if kw := strings.TrimSpace(keywords); kw != "" {
		q = q.Where("name LIKE ?", "%"+kw+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []knowledge.KnowledgeItem
	err := q.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus 按 id 覆写状态与错误信息。错误信息随状态一起写，
// 非失败状态总是清空 error_msg。
func (r *KnowledgeRepositoryImpl) UpdateStatus(ctx context.Context, id int64, status int8, errorMsg string) error {
	if status != knowledge.StatusFail {
		errorMsg = ""
	}
	return r.db.WithContext(ctx).
		Model(&knowledge.KnowledgeItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"error_msg":  errorMsg,
			"updated_at": time.Now(),
		}).Error
}

package knowledge

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// 文档类型，由文件扩展名推导
const (
	DocTypePDF  = "pdf"
	DocTypeDoc  = "doc"
	DocTypeText = "text"
)

// 知识条目生命周期状态，单次运行内只向前推进，任一非终态可直接进入 StatusFail
const (
	StatusPending   int8 = 1
	StatusSplitting int8 = 2
	StatusTraining  int8 = 3
	StatusComplete  int8 = 4
	StatusFail      int8 = 5
)

// KnowledgeItem 一条可摄取的知识文档
type KnowledgeItem struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ParentId  int64     `gorm:"column:parent_id;not null;default:0;index:idx_knowledge_parent"`
	Name      string    `gorm:"column:name;type:varchar(128);not null"`
	FileUrl   string    `gorm:"column:file_url;type:varchar(512);not null"`
	Type      string    `gorm:"column:type;type:varchar(10);not null"`
	IndexName string    `gorm:"column:index_name;type:varchar(64);not null"`
	Status    int8      `gorm:"column:status;type:tinyint;not null;default:1;index:idx_knowledge_status"`
	ErrorMsg  string    `gorm:"column:error_msg;type:varchar(255);not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (KnowledgeItem) TableName() string { return "ai_knowledge_item" }

// IsTerminalStatus Complete 与 Fail 是单次运行的终态
func IsTerminalStatus(status int8) bool {
	return status == StatusComplete || status == StatusFail
}

// DocTypeFromLocation 按扩展名约定推导文档类型：
// .pdf -> pdf，.doc/.docx -> doc，其余一律按纯文本处理
func DocTypeFromLocation(location string) string {
	p := strings.TrimSpace(location)
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return DocTypePDF
	case ".doc", ".docx":
		return DocTypeDoc
	default:
		return DocTypeText
	}
}

// 摄取请求模式
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// IngestionRequest 一次摄取请求：single 恰好一个条目，batch 按序处理多个条目
type IngestionRequest struct {
	Mode      string  `json:"mode"`
	IndexName string  `json:"index_name"`
	Items     []int64 `json:"items"`
}

// Segment 切分产物：一段文本及其 token 数，未持久化，
// 由切片器产出、嵌入客户端与向量存储共同消费
type Segment struct {
	Index      int
	Text       string
	TokenCount int
}

package request

// CreateKnowledgeRequest 登记一条知识文档
type CreateKnowledgeRequest struct {
	ParentId  int64  `json:"parent_id"`                    // 所属目录，0 表示根目录
	Name      string `json:"name" binding:"required"`      // 展示名称
	FileUrl   string `json:"file_url" binding:"required"`  // 文档地址，类型由扩展名推导
	IndexName string `json:"index_name"`                   // 目标向量索引，空则用默认索引
}

// KnowledgeListRequest 分页查询知识列表
type KnowledgeListRequest struct {
	ParentId int64  `json:"parent_id" form:"parent_id"`
	Keywords string `json:"keywords" form:"keywords"`
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"page_size" form:"page_size"`
}

// ProcessKnowledgeRequest 触发单条知识的异步摄取
type ProcessKnowledgeRequest struct {
	Id        int64  `json:"id" binding:"required"`
	IndexName string `json:"index_name"`
}

// ProcessBatchRequest 触发一批知识的异步摄取，批内按序处理
type ProcessBatchRequest struct {
	Ids       []int64 `json:"ids" binding:"required"`
	IndexName string  `json:"index_name"`
}

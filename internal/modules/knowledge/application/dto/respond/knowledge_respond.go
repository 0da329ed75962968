package respond

// KnowledgeRespond 知识条目视图
type KnowledgeRespond struct {
	Id        int64  `json:"id"`
	ParentId  int64  `json:"parent_id"`
	Name      string `json:"name"`
	FileUrl   string `json:"file_url"`
	Type      string `json:"type"`
	IndexName string `json:"index_name"`
	Status    int8   `json:"status"`
	ErrorMsg  string `json:"error_msg"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type KnowledgeListRespond struct {
	Total int64              `json:"total"`
	List  []KnowledgeRespond `json:"list"`
}

// IngestMetricsRespond 摄取队列观测数据
type IngestMetricsRespond struct {
	QueueDepth int `json:"queue_depth"`
	InFlight   int `json:"in_flight"`
}

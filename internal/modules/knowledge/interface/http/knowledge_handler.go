package http

import (
	"KnowLink/internal/modules/knowledge/application/dto/request"
	"KnowLink/internal/modules/knowledge/application/service"
	"KnowLink/pkg/back"
	"KnowLink/pkg/xerr"
	"KnowLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type KnowledgeHandler struct {
	knowledgeSvc service.KnowledgeService
}

func NewKnowledgeHandler(knowledgeSvc service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeSvc: knowledgeSvc}
}

// CreateKnowledge 登记知识文档
func (h *KnowledgeHandler) CreateKnowledge(c *gin.Context) {
	var req request.CreateKnowledgeRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.knowledgeSvc.CreateKnowledge(c.Request.Context(), req)
	back.Result(c, data, err)
}

// GetKnowledgeList 分页查询知识列表
func (h *KnowledgeHandler) GetKnowledgeList(c *gin.Context) {
	var req request.KnowledgeListRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.knowledgeSvc.GetKnowledgeList(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Process 触发单条知识的异步摄取，接受即返回
func (h *KnowledgeHandler) Process(c *gin.Context) {
	var req request.ProcessKnowledgeRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	err := h.knowledgeSvc.Process(c.Request.Context(), req)
	back.Result(c, gin.H{"id": req.Id}, err)
}

// ProcessBatch 触发一批知识的异步摄取
func (h *KnowledgeHandler) ProcessBatch(c *gin.Context) {
	var req request.ProcessBatchRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	err := h.knowledgeSvc.ProcessBatch(c.Request.Context(), req)
	back.Result(c, gin.H{"count": len(req.Ids)}, err)
}

// IngestMetrics 摄取队列观测
func (h *KnowledgeHandler) IngestMetrics(c *gin.Context) {
	back.Success(c, h.knowledgeSvc.IngestMetrics())
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"KnowLink/internal/modules/knowledge/application/dto/request"
	"KnowLink/internal/modules/knowledge/application/dto/respond"
	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/domain/repository"
	"KnowLink/internal/modules/knowledge/infrastructure/mq"
	"KnowLink/internal/modules/knowledge/infrastructure/queue"
	"KnowLink/pkg/xerr"
	"KnowLink/pkg/zlog"

	"go.uber.org/zap"
)

// KnowledgeService 接口定义 (Application Service)
type KnowledgeService interface {
	CreateKnowledge(ctx context.Context, req request.CreateKnowledgeRequest) (*respond.KnowledgeRespond, error)
	GetKnowledgeList(ctx context.Context, req request.KnowledgeListRequest) (*respond.KnowledgeListRespond, error)
	Process(ctx context.Context, req request.ProcessKnowledgeRequest) error
	ProcessBatch(ctx context.Context, req request.ProcessBatchRequest) error
	IngestMetrics() *respond.IngestMetricsRespond
}

type knowledgeServiceImpl struct {
	repo         repository.KnowledgeRepository
	dispatcher   *queue.Dispatcher
	publisher    mq.Publisher // Kafka 开启时非空，摄取请求走消息队列
	ingestTopic  string
	defaultIndex string
}

// NewKnowledgeService 构造函数。publisher 为空时摄取请求直接进本地调度器
func NewKnowledgeService(
	repo repository.KnowledgeRepository,
	dispatcher *queue.Dispatcher,
	publisher mq.Publisher,
	ingestTopic string,
	defaultIndex string,
) (KnowledgeService, error) {
	if repo == nil || dispatcher == nil {
		return nil, errors.New("knowledge service dependency is nil")
	}
	return &knowledgeServiceImpl{
		repo:         repo,
		dispatcher:   dispatcher,
		publisher:    publisher,
		ingestTopic:  strings.TrimSpace(ingestTopic),
		defaultIndex: strings.TrimSpace(defaultIndex),
	}, nil
}

func (s *knowledgeServiceImpl) CreateKnowledge(ctx context.Context, req request.CreateKnowledgeRequest) (*respond.KnowledgeRespond, error) {
	name := strings.TrimSpace(req.Name)
	fileUrl := strings.TrimSpace(req.FileUrl)
	if name == "" || fileUrl == "" {
		return nil, xerr.ErrParam
	}

	indexName := strings.TrimSpace(req.IndexName)
	if indexName == "" {
		indexName = s.defaultIndex
	}

	item := &knowledge.KnowledgeItem{
		ParentId:  req.ParentId,
		Name:      name,
		FileUrl:   fileUrl,
		Type:      knowledge.DocTypeFromLocation(fileUrl),
		IndexName: indexName,
		Status:    knowledge.StatusPending,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		zlog.Error("创建知识条目失败", zap.String("name", name), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	return toKnowledgeRespond(item), nil
}

func (s *knowledgeServiceImpl) GetKnowledgeList(ctx context.Context, req request.KnowledgeListRequest) (*respond.KnowledgeListRespond, error) {
	items, total, err := s.repo.List(ctx, req.ParentId, req.Keywords, req.Page, req.PageSize)
	if err != nil {
		zlog.Error("查询知识列表失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	list := make([]respond.KnowledgeRespond, 0, len(items))
	for i := range items {
		list = append(list, *toKnowledgeRespond(&items[i]))
	}
	return &respond.KnowledgeListRespond{Total: total, List: list}, nil
}

func (s *knowledgeServiceImpl) Process(ctx context.Context, req request.ProcessKnowledgeRequest) error {
	return s.enqueue(ctx, knowledge.ModeSingle, strings.TrimSpace(req.IndexName), []int64{req.Id})
}

func (s *knowledgeServiceImpl) ProcessBatch(ctx context.Context, req request.ProcessBatchRequest) error {
	if len(req.Ids) == 0 {
		return xerr.ErrParam
	}
	return s.enqueue(ctx, knowledge.ModeBatch, strings.TrimSpace(req.IndexName), req.Ids)
}

func (s *knowledgeServiceImpl) IngestMetrics() *respond.IngestMetricsRespond {
	return &respond.IngestMetricsRespond{
		QueueDepth: s.dispatcher.QueueDepth(),
		InFlight:   s.dispatcher.InFlight(),
	}
}

func (s *knowledgeServiceImpl) enqueue(ctx context.Context, mode, indexName string, ids []int64) error {
	// 先校验条目存在，索引为空时沿用条目登记的索引
	for _, id := range ids {
		item, err := s.repo.GetByID(ctx, id)
		if err != nil {
			zlog.Error("读取知识条目失败", zap.Int64("item_id", id), zap.Error(err))
			return xerr.ErrServerError
		}
		if item == nil {
			return xerr.ErrNotFound
		}
		if indexName == "" {
			indexName = item.IndexName
		}
	}
	if indexName == "" {
		indexName = s.defaultIndex
	}

	ingestReq := knowledge.IngestionRequest{
		Mode:      mode,
		IndexName: indexName,
		Items:     ids,
	}

	if s.publisher != nil && s.ingestTopic != "" {
		payload, err := json.Marshal(ingestReq)
		if err != nil {
			return xerr.ErrServerError
		}
		_, err = s.publisher.Publish(ctx, mq.Message{
			Topic: s.ingestTopic,
			Key:   []byte(strconv.FormatInt(ids[0], 10)),
			Value: payload,
		})
		if err != nil {
			zlog.Error("发布摄取消息失败", zap.Error(err))
			return xerr.ErrServerError
		}
		return nil
	}

	if err := s.dispatcher.Dispatch(ctx, ingestReq); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return xerr.ErrIngestBusy
		}
		zlog.Error("提交摄取请求失败", zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}

func toKnowledgeRespond(item *knowledge.KnowledgeItem) *respond.KnowledgeRespond {
	return &respond.KnowledgeRespond{
		Id:        item.Id,
		ParentId:  item.ParentId,
		Name:      item.Name,
		FileUrl:   item.FileUrl,
		Type:      item.Type,
		IndexName: item.IndexName,
		Status:    item.Status,
		ErrorMsg:  item.ErrorMsg,
		CreatedAt: item.CreatedAt.Format(time.DateTime),
		UpdatedAt: item.UpdatedAt.Format(time.DateTime),
	}
}

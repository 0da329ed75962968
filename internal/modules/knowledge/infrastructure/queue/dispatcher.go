package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/domain/repository"
	"KnowLink/pkg/util"
	"KnowLink/pkg/zlog"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// ErrQueueFull 队列已满时 Dispatch 立即拒绝，不阻塞调用方
var ErrQueueFull = errors.New("ingest queue is full")

// PipelineRunner 执行单条知识的摄取
type PipelineRunner interface {
	Run(ctx context.Context, itemID int64, indexName string) error
}

// Dispatcher 摄取请求的有界队列与工作池。
// Dispatch 只做校验与入队，队列满则拒绝且不触碰任何状态记录；
// 条目在 worker 真正开跑时才置为 Pending。
// 一个请求占用一个 worker，批内条目按序处理、失败互不影响。
type Dispatcher struct {
	runner PipelineRunner
	repo   repository.KnowledgeRepository

	pool  *ants.Pool
	tasks chan knowledge.IngestionRequest
	quit  chan struct{}

	wg     sync.WaitGroup
	closed atomic.Bool
}

func NewDispatcher(runner PipelineRunner, repo repository.KnowledgeRepository, queueSize, workers int) (*Dispatcher, error) {
	if runner == nil || repo == nil {
		return nil, errors.New("dispatcher dependency is nil")
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 4
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		runner: runner,
		repo:   repo,
		pool:   pool,
		tasks:  make(chan knowledge.IngestionRequest, queueSize),
		quit:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.feed()
	return d, nil
}

// Dispatch 校验请求并尝试入队，队列满返回 ErrQueueFull，
// 调用方自行决定重试或回报上游。被拒绝的请求不会留下任何状态写入，
// 条目保持原状态（例如已完成的条目不会被打回 Pending）。
func (d *Dispatcher) Dispatch(ctx context.Context, req knowledge.IngestionRequest) error {
	if d.closed.Load() {
		return errors.New("dispatcher is closed")
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	select {
	case d.tasks <- req:
		return nil
	default:
		zlog.Warn("摄取队列已满，拒绝请求",
			zap.String("mode", req.Mode),
			zap.Int("items", len(req.Items)))
		return ErrQueueFull
	}
}

// QueueDepth 当前排队中的请求数
func (d *Dispatcher) QueueDepth() int { return len(d.tasks) }

// InFlight 正在处理中的请求数
func (d *Dispatcher) InFlight() int { return d.pool.Running() }

// Close 停止接收并等待投喂协程退出，已提交给池的任务由池收尾
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	close(d.quit)
	d.wg.Wait()
	d.pool.Release()
}

func (d *Dispatcher) feed() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			return
		case req := <-d.tasks:
			task := req
			if err := d.pool.Submit(func() { d.process(task) }); err != nil {
				zlog.Error("提交摄取任务失败", zap.Error(err))
				for _, itemID := range task.Items {
					if uerr := d.repo.UpdateStatus(context.Background(), itemID, knowledge.StatusFail, "dispatch failed: "+err.Error()); uerr != nil {
						zlog.Warn("回写失败状态出错", zap.Int64("item_id", itemID), zap.Error(uerr))
					}
				}
			}
		}
	}
}

func (d *Dispatcher) process(req knowledge.IngestionRequest) {
	runID := util.GenerateShortUUID()
	ctx := context.Background()

	zlog.Info("开始处理摄取请求",
		zap.String("run_id", runID),
		zap.String("mode", req.Mode),
		zap.String("index", req.IndexName),
		zap.Int("items", len(req.Items)))

	// 重新摄取从 Pending 重新开始；写入推迟到此处，
	// 排队中被丢弃或被拒绝的请求不会碰状态记录
	for _, itemID := range req.Items {
		if err := d.repo.UpdateStatus(ctx, itemID, knowledge.StatusPending, ""); err != nil {
			zlog.Warn("置为 Pending 失败",
				zap.String("run_id", runID),
				zap.Int64("item_id", itemID),
				zap.Error(err))
		}
	}

	failed := 0
	for _, itemID := range req.Items {
		// 单条失败不影响批内其余条目
		if err := d.runner.Run(ctx, itemID, req.IndexName); err != nil {
			failed++
		}
	}

	zlog.Info("摄取请求处理结束",
		zap.String("run_id", runID),
		zap.Int("items", len(req.Items)),
		zap.Int("failed", failed))
}

func validateRequest(req knowledge.IngestionRequest) error {
	if req.IndexName == "" {
		return errors.New("index name is required")
	}
	if len(req.Items) == 0 {
		return errors.New("request has no items")
	}
	switch req.Mode {
	case knowledge.ModeSingle:
		if len(req.Items) != 1 {
			return errors.New("single mode requires exactly one item")
		}
	case knowledge.ModeBatch:
	default:
		return errors.New("unknown ingestion mode: " + req.Mode)
	}
	return nil
}

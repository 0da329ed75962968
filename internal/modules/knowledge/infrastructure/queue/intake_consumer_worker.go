package queue

import (
	"context"
	"encoding/json"
	"errors"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/infrastructure/mq"
	"KnowLink/pkg/zlog"

	"go.uber.org/zap"
)

// IntakeConsumerWorker 把 Kafka 上的摄取请求转交给本地调度器。
// 消息格式错误视为毒消息直接确认丢弃，本地队列满则让消息重投。
type IntakeConsumerWorker struct {
	consumer   mq.Consumer
	dispatcher *Dispatcher
}

func NewIntakeConsumerWorker(consumer mq.Consumer, dispatcher *Dispatcher) (*IntakeConsumerWorker, error) {
	if consumer == nil || dispatcher == nil {
		return nil, errors.New("intake worker dependency is nil")
	}
	return &IntakeConsumerWorker{consumer: consumer, dispatcher: dispatcher}, nil
}

func (w *IntakeConsumerWorker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w)
}

func (w *IntakeConsumerWorker) Close() error {
	return w.consumer.Close()
}

func (w *IntakeConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var req knowledge.IngestionRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		zlog.Warn("摄取消息格式错误，丢弃",
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return nil
	}

	if err := w.dispatcher.Dispatch(ctx, req); err != nil {
		if errors.Is(err, ErrQueueFull) {
			// 不提交位点，等待下一轮消费
			return err
		}
		zlog.Warn("摄取消息请求非法，丢弃",
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return nil
	}
	return nil
}

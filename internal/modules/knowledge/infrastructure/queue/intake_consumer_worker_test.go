package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/infrastructure/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopConsumer struct{}

func (nopConsumer) Run(ctx context.Context, handler mq.Handler) error { return nil }
func (nopConsumer) Close() error                                      { return nil }

func TestIntakeHandleDispatches(t *testing.T) {
	runner := &recordingRunner{}
	d, err := NewDispatcher(runner, newStubRepo(), 4, 1)
	require.NoError(t, err)
	defer d.Close()

	w, err := NewIntakeConsumerWorker(nopConsumer{}, d)
	require.NoError(t, err)

	payload, err := json.Marshal(knowledge.IngestionRequest{
		Mode: knowledge.ModeSingle, IndexName: "kb", Items: []int64{42},
	})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), mq.Message{Topic: "ingest", Value: payload}))
	require.Eventually(t, func() bool {
		return len(runner.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{42}, runner.seen())
}

func TestIntakeHandlePoisonMessageAcked(t *testing.T) {
	runner := &recordingRunner{}
	d, err := NewDispatcher(runner, newStubRepo(), 4, 1)
	require.NoError(t, err)
	defer d.Close()

	w, err := NewIntakeConsumerWorker(nopConsumer{}, d)
	require.NoError(t, err)

	// 格式错误的消息确认丢弃，不能卡死消费位点
	assert.NoError(t, w.Handle(context.Background(), mq.Message{Topic: "ingest", Value: []byte("{broken")}))
	// 请求非法（缺索引名）同样丢弃
	payload, _ := json.Marshal(knowledge.IngestionRequest{Mode: knowledge.ModeSingle, Items: []int64{1}})
	assert.NoError(t, w.Handle(context.Background(), mq.Message{Topic: "ingest", Value: payload}))
}

func TestIntakeHandleQueueFullRequeues(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{})}
	d, err := NewDispatcher(runner, newStubRepo(), 1, 1)
	require.NoError(t, err)
	defer func() {
		close(runner.block)
		d.Close()
	}()

	w, err := NewIntakeConsumerWorker(nopConsumer{}, d)
	require.NoError(t, err)

	sawErr := false
	for i := int64(0); i < 6; i++ {
		payload, _ := json.Marshal(knowledge.IngestionRequest{
			Mode: knowledge.ModeSingle, IndexName: "kb", Items: []int64{200 + i},
		})
		if err := w.Handle(context.Background(), mq.Message{Topic: "ingest", Value: payload}); err != nil {
			sawErr = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	// 队列满必须把错误抛给消费组触发重投
	assert.True(t, sawErr)
}

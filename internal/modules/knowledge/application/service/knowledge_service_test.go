package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"KnowLink/internal/modules/knowledge/application/dto/request"
	"KnowLink/internal/modules/knowledge/domain/knowledge"
	"KnowLink/internal/modules/knowledge/infrastructure/queue"
	"KnowLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*knowledge.KnowledgeItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, items: make(map[int64]*knowledge.KnowledgeItem)}
}

func (r *fakeRepo) Create(ctx context.Context, item *knowledge.KnowledgeItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.Id = r.nextID
	r.nextID++
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.Id] = item
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*knowledge.KnowledgeItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, parentID int64, keywords string, page, pageSize int) ([]knowledge.KnowledgeItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]knowledge.KnowledgeItem, 0, len(r.items))
	for _, it := range r.items {
		if it.ParentId == parentID {
			out = append(out, *it)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id int64, status int8, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.items[id]; ok {
		it.Status = status
		it.ErrorMsg = errorMsg
	}
	return nil
}

type captureRunner struct {
	mu      sync.Mutex
	itemIDs []int64
	indexes []string
	block   chan struct{}
}

func (c *captureRunner) Run(ctx context.Context, itemID int64, indexName string) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.itemIDs = append(c.itemIDs, itemID)
	c.indexes = append(c.indexes, indexName)
	return nil
}

func (c *captureRunner) snapshot() ([]int64, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int64, len(c.itemIDs))
	copy(ids, c.itemIDs)
	idx := make([]string, len(c.indexes))
	copy(idx, c.indexes)
	return ids, idx
}

func newTestService(t *testing.T, repo *fakeRepo, runner *captureRunner, queueSize int) (KnowledgeService, *queue.Dispatcher) {
	t.Helper()
	d, err := queue.NewDispatcher(runner, repo, queueSize, 1)
	require.NoError(t, err)
	svc, err := NewKnowledgeService(repo, d, nil, "", "kb_default")
	require.NoError(t, err)
	return svc, d
}

func TestCreateKnowledgeInfersTypeAndDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc, d := newTestService(t, repo, &captureRunner{}, 4)
	defer d.Close()

	resp, err := svc.CreateKnowledge(context.Background(), request.CreateKnowledgeRequest{
		Name:    "年报",
		FileUrl: "http://cdn.example.com/files/annual.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, knowledge.DocTypePDF, resp.Type)
	assert.Equal(t, knowledge.StatusPending, resp.Status)
	assert.Equal(t, "kb_default", resp.IndexName)
	assert.Empty(t, resp.ErrorMsg)
}

func TestCreateKnowledgeRejectsBlankFields(t *testing.T) {
	repo := newFakeRepo()
	svc, d := newTestService(t, repo, &captureRunner{}, 4)
	defer d.Close()

	_, err := svc.CreateKnowledge(context.Background(), request.CreateKnowledgeRequest{Name: "  ", FileUrl: "x"})
	assert.ErrorIs(t, err, xerr.ErrParam)
}

func TestProcessUnknownItem(t *testing.T) {
	repo := newFakeRepo()
	svc, d := newTestService(t, repo, &captureRunner{}, 4)
	defer d.Close()

	err := svc.Process(context.Background(), request.ProcessKnowledgeRequest{Id: 999})
	assert.ErrorIs(t, err, xerr.ErrNotFound)
}

func TestProcessUsesItemIndexWhenUnspecified(t *testing.T) {
	repo := newFakeRepo()
	runner := &captureRunner{}
	svc, d := newTestService(t, repo, runner, 4)
	defer d.Close()

	resp, err := svc.CreateKnowledge(context.Background(), request.CreateKnowledgeRequest{
		Name: "doc", FileUrl: "http://f/a.txt", IndexName: "kb_custom",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), request.ProcessKnowledgeRequest{Id: resp.Id}))
	require.Eventually(t, func() bool {
		ids, _ := runner.snapshot()
		return len(ids) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ids, indexes := runner.snapshot()
	assert.Equal(t, []int64{resp.Id}, ids)
	assert.Equal(t, []string{"kb_custom"}, indexes)
}

func TestProcessBatch(t *testing.T) {
	repo := newFakeRepo()
	runner := &captureRunner{}
	svc, d := newTestService(t, repo, runner, 4)
	defer d.Close()

	var ids []int64
	for i := 0; i < 3; i++ {
		resp, err := svc.CreateKnowledge(context.Background(), request.CreateKnowledgeRequest{
			Name: "doc", FileUrl: "http://f/a.txt",
		})
		require.NoError(t, err)
		ids = append(ids, resp.Id)
	}

	require.NoError(t, svc.ProcessBatch(context.Background(), request.ProcessBatchRequest{Ids: ids, IndexName: "kb_batch"}))
	require.Eventually(t, func() bool {
		got, _ := runner.snapshot()
		return len(got) == 3
	}, 2*time.Second, 10*time.Millisecond)

	got, _ := runner.snapshot()
	assert.Equal(t, ids, got)
}

func TestProcessQueueFullMapsToBusy(t *testing.T) {
	repo := newFakeRepo()
	runner := &captureRunner{block: make(chan struct{})}
	svc, d := newTestService(t, repo, runner, 1)
	defer func() {
		close(runner.block)
		d.Close()
	}()

	resp, err := svc.CreateKnowledge(context.Background(), request.CreateKnowledgeRequest{
		Name: "doc", FileUrl: "http://f/a.txt",
	})
	require.NoError(t, err)

	gotBusy := false
	for i := 0; i < 6; i++ {
		if err := svc.Process(context.Background(), request.ProcessKnowledgeRequest{Id: resp.Id}); err != nil {
			assert.ErrorIs(t, err, xerr.ErrIngestBusy)
			gotBusy = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.True(t, gotBusy)

	m := svc.IngestMetrics()
	assert.GreaterOrEqual(t, m.QueueDepth, 0)
	assert.GreaterOrEqual(t, m.InFlight, 0)
}

package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/share-worker/internal/config"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Test Helpers
// =============================================================================

type call struct {
	op string
	id string
	n  Notification
}

// recordingBackend 백엔드 호출을 순서대로 기록합니다.
type recordingBackend struct {
	mu    sync.Mutex
	calls []call

	// failShow 지정된 ID의 Show 호출을 실패시킵니다.
	failShow string

	// block 닫힐 때까지 모든 호출을 지연시킵니다 (nil이면 지연 없음).
	block chan struct{}
}

func (b *recordingBackend) Show(_ context.Context, n Notification) error {
	if b.block != nil {
		<-b.block
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, call{op: "show", id: n.ID, n: n})
	if n.ID == b.failShow {
		return errors.New("backend unavailable")
	}
	return nil
}

func (b *recordingBackend) Cancel(_ context.Context, id string) error {
	if b.block != nil {
		<-b.block
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, call{op: "cancel", id: id})
	return nil
}

func (b *recordingBackend) Calls() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

func (b *recordingBackend) Ops() []string {
	var ops []string
	for _, c := range b.Calls() {
		ops = append(ops, c.op+":"+c.id)
	}
	return ops
}

func testNotificationConfig() config.NotificationConfig {
	return config.NotificationConfig{
		DefaultIcon:     "autorenew",
		ForegroundTitle: "작업 진행 중",
		ForegroundText:  "백그라운드 작업 서비스가 실행 중입니다",
	}
}

func startPublisher(t *testing.T, backend Backend) (*Publisher, func()) {
	t.Helper()

	p := NewPublisher(testNotificationConfig(), backend)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, p.Start(ctx, wg))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
	t.Cleanup(stop)

	return p, stop
}

// =============================================================================
// Tests
// =============================================================================

func TestPublisher_Publish_BuildsOnceAndUpdates(t *testing.T) {
	t.Parallel()

	p := NewPublisher(testNotificationConfig(), &recordingBackend{})

	p.Publish(worker.Info{Key: "k1", Title: "파일 정리", StatusText: "시작"})
	first := p.notifications["k1"]
	require.NotNil(t, first)

	p.Publish(worker.Info{Key: "k1", Title: "파일 정리", StatusText: "파일 정리 중 (1/3)", Progress: worker.Progress{Current: 1, Total: 3}})

	assert.Same(t, first, p.notifications["k1"], "알림은 처음 한 번만 만들어져야 합니다")
	assert.Equal(t, "k1", first.CancelAction)
	assert.Equal(t, "파일 정리 중 (1/3)", first.Text)
	assert.Equal(t, worker.Progress{Current: 1, Total: 3}, first.Progress)

	// 처리되지 않은 갱신은 하나로 합쳐집니다.
	require.Len(t, p.queue, 1)
	assert.Equal(t, "파일 정리 중 (1/3)", p.queue[0].n.Text)
}

func TestPublisher_Publish_Defaults(t *testing.T) {
	t.Parallel()

	p := NewPublisher(testNotificationConfig(), &recordingBackend{})
	p.Publish(worker.Info{Key: "k1"})

	n := p.notifications["k1"]
	assert.Equal(t, defaultTaskTitle, n.Title)
	assert.Equal(t, "autorenew", n.Icon)
	assert.False(t, n.Foreground)

	p.Publish(worker.Info{Key: "k1", Title: "제목", Icon: "share", ContentAction: "https://example.com"})
	assert.Equal(t, "share", n.Icon)
	assert.Equal(t, "https://example.com", n.ContentAction)
}

func TestPublisher_DeliversInOrder(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{block: make(chan struct{})}
	p, _ := startPublisher(t, backend)

	p.ShowForeground()
	p.Publish(worker.Info{Key: "a", StatusText: "1"})
	p.Cancel("a")
	p.Publish(worker.Info{Key: "a", StatusText: "2"})
	p.RetireForeground()

	close(backend.block)

	want := []string{
		"show:" + ForegroundID,
		"show:a",
		"cancel:a",
		"show:a",
		"cancel:" + ForegroundID,
	}
	assert.Eventually(t, func() bool { return len(backend.Calls()) == len(want) }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, want, backend.Ops(), "취소를 사이에 둔 표시 요청은 합쳐지지 않아야 합니다")

	calls := backend.Calls()
	assert.True(t, calls[0].n.Foreground)
	assert.Equal(t, "작업 진행 중", calls[0].n.Title)
	assert.Empty(t, calls[0].n.CancelAction)
	assert.Equal(t, "2", calls[3].n.Text)
}

func TestPublisher_CancelUnknownKey(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{}
	p, _ := startPublisher(t, backend)

	p.Cancel("stale-from-previous-run")

	assert.Eventually(t, func() bool { return len(backend.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"cancel:stale-from-previous-run"}, backend.Ops())
}

func TestPublisher_BackendErrorDoesNotStopDelivery(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{failShow: "broken"}
	p, _ := startPublisher(t, backend)

	p.Publish(worker.Info{Key: "broken"})
	p.Publish(worker.Info{Key: "ok"})

	assert.Eventually(t, func() bool { return len(backend.Calls()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"show:broken", "show:ok"}, backend.Ops())
}

func TestPublisher_StopFlushesPendingAndDropsLater(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{block: make(chan struct{})}
	p, stop := startPublisher(t, backend)

	p.Publish(worker.Info{Key: "a"})
	p.Cancel("a")

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	close(backend.block)
	<-stopped

	assert.Equal(t, []string{"show:a", "cancel:a"}, backend.Ops())

	p.Publish(worker.Info{Key: "late"})
	assert.Empty(t, p.queue, "종료 후 요청은 버려져야 합니다")
}

func TestPublisher_WithWorkerService(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{}
	p, stopPublisher := startPublisher(t, backend)

	service := worker.NewService(config.WorkerConfig{PoolSize: 1}, p)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	done := make(chan struct{})
	require.NoError(t, service.Submit(worker.NewTask(worker.Config{Discriminator: "job", Title: "작업"}, worker.BodyFunc(func(t *worker.Task) error {
		defer close(done)
		t.PublishStatusText("진행 중")
		return nil
	}))))
	<-done

	assert.Eventually(t, func() bool { return service.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
	require.NoError(t, service.Drain(context.Background()))
	stopPublisher()

	ops := backend.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "show:"+ForegroundID, ops[0])
	assert.Equal(t, "cancel:"+ForegroundID, ops[len(ops)-1])
	assert.Contains(t, ops, "cancel:job")
}

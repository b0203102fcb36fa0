package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/share-worker/internal/config"
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

// fakePublisher 알림 호출을 기록하고, 서비스 실행 중 알림의 표시/해제가 번갈아 일어나는지 검사합니다.
type fakePublisher struct {
	mu         sync.Mutex
	published  []Info
	canceled   []TaskKey
	foreground bool
	shows      int
	retires    int
	violations []string
}

var _ Publisher = (*fakePublisher)(nil)

func (p *fakePublisher) Publish(info Info) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.foreground {
		p.violations = append(p.violations, "서비스 실행 중 알림 없이 작업 알림이 표시됨: "+info.Key.String())
	}
	p.published = append(p.published, info)
}

func (p *fakePublisher) Cancel(key TaskKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.canceled = append(p.canceled, key)
}

func (p *fakePublisher) ShowForeground() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.foreground {
		p.violations = append(p.violations, "서비스 실행 중 알림이 중복 표시됨")
	}
	p.foreground = true
	p.shows++
}

func (p *fakePublisher) RetireForeground() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.foreground {
		p.violations = append(p.violations, "표시되지 않은 서비스 실행 중 알림을 내림")
	}
	p.foreground = false
	p.retires++
}

func (p *fakePublisher) Foreground() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.foreground
}

func (p *fakePublisher) PublishedFor(key TaskKey) []Info {
	p.mu.Lock()
	defer p.mu.Unlock()

	var infos []Info
	for _, info := range p.published {
		if info.Key == key {
			infos = append(infos, info)
		}
	}
	return infos
}

func (p *fakePublisher) Canceled() []TaskKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TaskKey(nil), p.canceled...)
}

func (p *fakePublisher) Violations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.violations...)
}

// interruptibleBody 중단될 때까지 대기하는 본문입니다.
type interruptibleBody struct {
	started chan struct{}

	mu          sync.Mutex
	interrupted int
}

func newInterruptibleBody() *interruptibleBody {
	return &interruptibleBody{started: make(chan struct{}, 1)}
}

func (b *interruptibleBody) Run(t *Task) error {
	b.started <- struct{}{}
	<-t.Interrupter().Done()
	return t.Interrupter().Err()
}

func (b *interruptibleBody) OnInterrupted(*Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interrupted++
}

func (b *interruptibleBody) InterruptedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interrupted
}

func waitStarted(t *testing.T, b *interruptibleBody) {
	t.Helper()

	select {
	case <-b.started:
	case <-time.After(2 * time.Second):
		t.Fatal("작업이 시작되지 않았습니다")
	}
}

type serviceTestHelper struct {
	t         *testing.T
	service   *Service
	publisher *fakePublisher
	cancel    context.CancelFunc
	wg        *sync.WaitGroup
}

func startService(t *testing.T, cfg config.WorkerConfig) *serviceTestHelper {
	t.Helper()

	publisher := &fakePublisher{}
	service := NewService(cfg, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	h := &serviceTestHelper{t: t, service: service, publisher: publisher, cancel: cancel, wg: wg}
	t.Cleanup(h.Stop)

	return h
}

// Stop 서비스를 종료하고 모든 워커가 끝날 때까지 기다립니다. 여러 번 호출해도 안전합니다.
func (h *serviceTestHelper) Stop() {
	h.cancel()
	h.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(h.t, h.service.Drain(ctx))
}

func (h *serviceTestHelper) EventuallyEmpty() {
	h.t.Helper()

	assert.Eventually(h.t, func() bool { return h.service.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

// =============================================================================
// 1. 생명주기
// =============================================================================

func TestService_Start_Errors(t *testing.T) {
	t.Parallel()

	t.Run("Publisher 누락", func(t *testing.T) {
		t.Parallel()

		service := NewService(config.WorkerConfig{}, nil)
		wg := &sync.WaitGroup{}
		wg.Add(1)

		err := service.Start(context.Background(), wg)
		assert.ErrorIs(t, err, ErrPublisherNotInitialized)
		wg.Wait()
	})

	t.Run("중복 시작", func(t *testing.T) {
		t.Parallel()

		h := startService(t, config.WorkerConfig{PoolSize: 1})

		h.wg.Add(1)
		assert.NoError(t, h.service.Start(context.Background(), h.wg))
	})
}

func TestService_Submit_States(t *testing.T) {
	t.Parallel()

	service := NewService(config.WorkerConfig{PoolSize: 1}, &fakePublisher{})
	task := NewTask(Config{}, noopBody())

	assert.ErrorIs(t, service.Submit(task), ErrServiceNotRunning)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	cancel()
	wg.Wait()
	require.NoError(t, service.Drain(context.Background()))

	assert.ErrorIs(t, service.Submit(task), ErrServiceStopped)
}

func TestService_Submit_InvalidTask(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1})

	assert.ErrorIs(t, h.service.Submit(nil), ErrInvalidTask)
	assert.ErrorIs(t, h.service.Submit(NewTask(Config{}, nil)), ErrInvalidTask)

	err := h.service.Submit(NewTask(Config{Discriminator: strings.Repeat("k", MaxKeyLength+1)}, noopBody()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "최대 길이")

	assert.NoError(t, h.service.Submit(NewTask(Config{Discriminator: strings.Repeat("k", MaxKeyLength)}, noopBody())))
}

func TestService_RegisterRunUnregister(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 2})

	type observation struct {
		found      bool
		foreground bool
		published  int
	}
	observed := make(chan observation, 1)

	task := NewTask(Config{Discriminator: "k1", Title: "작업"}, BodyFunc(func(t *Task) error {
		observed <- observation{
			found:      h.service.FindByKey(t.Key()) == t,
			foreground: h.publisher.Foreground(),
			published:  len(h.publisher.PublishedFor(t.Key())),
		}
		return nil
	}))

	require.NoError(t, h.service.Submit(task))

	o := <-observed
	assert.True(t, o.found, "본문 실행 전에 등록되어야 합니다")
	assert.True(t, o.foreground)
	assert.Equal(t, 1, o.published, "등록 시 작업 알림이 한 번 표시되어야 합니다")

	h.EventuallyEmpty()
	assert.Nil(t, h.service.FindByKey("k1"))
	assert.Eventually(t, func() bool { return !h.publisher.Foreground() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []TaskKey{"k1"}, h.publisher.Canceled())
	assert.True(t, task.LastNotifiedAt().IsZero(), "등록 시점의 알림 표시는 갱신 시각으로 기록되지 않아야 합니다")
	assert.False(t, task.PublishStatusText("완료 후"), "등록 해제 후에는 알림을 갱신하지 않아야 합니다")
	assert.Empty(t, h.publisher.Violations())
}

func TestService_FiveRapidPublishes(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1, StatusThrottle: 2 * time.Second})

	clock := newFakeClock()
	results := make(chan []bool, 1)
	release := make(chan struct{})

	task := NewTask(Config{Discriminator: "K", Now: clock.Now}, BodyFunc(func(t *Task) error {
		var got []bool
		for i := 1; i <= 5; i++ {
			got = append(got, t.PublishStatusText(fmt.Sprintf("파일 정리 중 (%d/5)", i)))
		}
		results <- got
		<-release
		return nil
	}))
	require.NoError(t, h.service.Submit(task))

	got := <-results
	assert.Equal(t, []bool{true, false, false, false, false}, got)
	assert.Equal(t, clock.Now(), task.LastNotifiedAt())

	// 등록 시 1회 + 상태 갱신 1회
	published := h.publisher.PublishedFor("K")
	require.Len(t, published, 2)
	assert.Equal(t, "파일 정리 중 (1/5)", published[1].StatusText)
	assert.Equal(t, "파일 정리 중 (5/5)", task.StatusText())

	close(release)
	h.EventuallyEmpty()
}

func TestService_PublishStatusText_TwoCallsApart(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1, StatusThrottle: 2 * time.Second})

	for _, tc := range []struct {
		gap  time.Duration
		want int
	}{
		{gap: 1999 * time.Millisecond, want: 1},
		{gap: 2001 * time.Millisecond, want: 2},
	} {
		clock := newFakeClock()
		key := TaskKey(fmt.Sprintf("gap-%d", tc.gap.Milliseconds()))
		done := make(chan struct{})

		task := NewTask(Config{Discriminator: key.String(), Now: clock.Now}, BodyFunc(func(t *Task) error {
			defer close(done)
			t.PublishStatusText("a")
			clock.Advance(tc.gap)
			t.PublishStatusText("b")
			return nil
		}))
		require.NoError(t, h.service.Submit(task))
		<-done

		assert.Eventually(t, func() bool { return h.service.FindByKey(key) == nil }, time.Second, 5*time.Millisecond)
		assert.Len(t, h.publisher.PublishedFor(key), 1+tc.want, "gap=%v", tc.gap)
	}
}

// =============================================================================
// 2. 취소
// =============================================================================

func TestService_InterruptAll(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 4})

	bodies := map[TaskKey]*interruptibleBody{}
	tasks := map[TaskKey]*Task{}
	for _, key := range []TaskKey{"A", "B", "C"} {
		b := newInterruptibleBody()
		task := NewTask(Config{Discriminator: key.String()}, b)
		bodies[key], tasks[key] = b, task

		require.NoError(t, h.service.Submit(task))
		waitStarted(t, b)
	}
	require.Equal(t, 3, h.service.Len())

	h.service.InterruptAll()

	for key, task := range tasks {
		assert.True(t, task.Interrupted(), key)
		assert.True(t, task.Interrupter().UserInitiated(), key)
		assert.Equal(t, 1, bodies[key].InterruptedCount(), key)
	}

	h.EventuallyEmpty()
	assert.Eventually(t, func() bool { return !h.publisher.Foreground() }, time.Second, 5*time.Millisecond)

	// 이미 중단된 작업에는 OnInterrupted를 다시 호출하지 않습니다.
	assert.Equal(t, 0, h.service.CancelAll())
	assert.Empty(t, h.publisher.Violations())
}

func TestService_CancelByKey(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 2})

	target := newInterruptibleBody()
	other := newInterruptibleBody()
	targetTask := NewTask(Config{Discriminator: "target"}, target)
	otherTask := NewTask(Config{Discriminator: "other"}, other)

	require.NoError(t, h.service.Submit(targetTask))
	require.NoError(t, h.service.Submit(otherTask))
	waitStarted(t, target)
	waitStarted(t, other)

	assert.True(t, h.service.Cancel("target"))
	assert.True(t, targetTask.Interrupted())
	assert.False(t, otherTask.Interrupted())
	assert.Equal(t, 1, target.InterruptedCount())

	assert.Eventually(t, func() bool { return h.service.FindByKey("target") == nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.service.Len())

	h.service.Cancel("other")
	h.EventuallyEmpty()
}

func TestService_CancelUnknownKey(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1})

	b := newInterruptibleBody()
	require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: "live"}, b)))
	waitStarted(t, b)

	var canceled bool
	require.NotPanics(t, func() { canceled = h.service.Cancel("ghost") })

	assert.False(t, canceled)
	assert.Contains(t, h.publisher.Canceled(), TaskKey("ghost"), "남아 있는 알림은 제거되어야 합니다")
	assert.Equal(t, 1, h.service.Len(), "레지스트리 상태는 변하지 않아야 합니다")
	assert.NotNil(t, h.service.FindByKey("live"))

	h.service.Cancel("live")
	h.EventuallyEmpty()
}

func TestService_Teardown(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{}
	service := NewService(config.WorkerConfig{PoolSize: 1}, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	// 중단을 관찰한 뒤에도 release 전까지는 반환하지 않는 작업
	observed := make(chan bool, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	running := NewTask(Config{Discriminator: "running"}, BodyFunc(func(t *Task) error {
		close(started)
		<-t.Interrupter().Done()
		observed <- t.Interrupter().UserInitiated()
		<-release
		return t.Interrupter().Err()
	}))
	queued := NewTask(Config{Discriminator: "queued"}, noopBody())

	require.NoError(t, service.Submit(running))
	<-started
	require.NoError(t, service.Submit(queued))

	cancel()
	wg.Wait() // 작업 본문의 종료를 기다리지 않고 반환되어야 합니다.

	assert.False(t, <-observed, "서비스 종료에 의한 중단은 userInitiated=false여야 합니다")
	assert.True(t, queued.Interrupted(), "시작되지 않은 작업도 중단되어야 합니다")
	assert.Equal(t, 1, service.Len(), "본문이 반환되기 전까지 등록 상태가 유지되어야 합니다")
	assert.ErrorIs(t, service.Submit(NewTask(Config{}, noopBody())), ErrServiceStopped)

	close(release)
	require.NoError(t, service.Drain(context.Background()))

	assert.Equal(t, 0, service.Len())
	assert.Empty(t, publisher.PublishedFor("queued"), "시작되지 않은 작업은 알림을 표시하지 않아야 합니다")
	assert.False(t, publisher.Foreground())
}

func TestService_Teardown_InterruptsDispatchedTask(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{}
	service := NewService(config.WorkerConfig{PoolSize: 1}, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	cancel()
	wg.Wait()

	// 종료 처리 직전에 워커가 대기열에서 꺼냈던 작업을 재현합니다.
	observed := make(chan bool, 1)
	task := NewTask(Config{Discriminator: "dispatched"}, BodyFunc(func(t *Task) error {
		select {
		case <-t.Interrupter().Done():
			observed <- t.Interrupter().UserInitiated()
		case <-time.After(2 * time.Second):
			close(observed)
		}
		return t.Interrupter().Err()
	}))
	service.execute(task)

	userInitiated, ok := <-observed
	require.True(t, ok, "종료 이후에 등록된 작업도 중단되어야 합니다")
	assert.False(t, userInitiated)
	assert.Equal(t, 0, service.Len())
	assert.False(t, service.InFlight("dispatched"))
	require.NoError(t, service.Drain(context.Background()))
}

func TestService_Teardown_NoTaskEscapes(t *testing.T) {
	t.Parallel()

	const iterations = 300

	for i := 0; i < iterations; i++ {
		publisher := &fakePublisher{}
		service := NewService(config.WorkerConfig{PoolSize: 1}, publisher)

		ctx, cancel := context.WithCancel(context.Background())
		wg := &sync.WaitGroup{}
		wg.Add(1)
		require.NoError(t, service.Start(ctx, wg))

		task := NewTask(Config{}, BodyFunc(func(t *Task) error {
			select {
			case <-t.Interrupter().Done():
			case <-time.After(30 * time.Millisecond):
			}
			return nil
		}))
		require.NoError(t, service.Submit(task))

		cancel()
		wg.Wait()

		drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, service.Drain(drainCtx))
		drainCancel()

		require.True(t, task.Interrupted(), "반복 %d: 종료 중 접수된 작업이 중단되지 않았습니다", i)
		assert.False(t, task.Interrupter().UserInitiated())
	}
}

// unwindingBody 중단된 뒤에도 release가 닫힐 때까지 반환하지 않는 본문입니다.
type unwindingBody struct {
	started chan struct{}
	release chan struct{}
}

func newUnwindingBody(release chan struct{}) *unwindingBody {
	return &unwindingBody{started: make(chan struct{}), release: release}
}

func (b *unwindingBody) Run(t *Task) error {
	close(b.started)
	<-t.Interrupter().Done()
	<-b.release
	return t.Interrupter().Err()
}

func TestService_Cancel_DuplicateKeySkipsInterrupted(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 2})

	release := make(chan struct{})
	first := newUnwindingBody(release)
	second := newUnwindingBody(release)
	firstTask := NewTask(Config{Discriminator: "dup"}, first)
	secondTask := NewTask(Config{Discriminator: "dup"}, second)

	require.NoError(t, h.service.Submit(firstTask))
	<-first.started
	require.NoError(t, h.service.Submit(secondTask))
	<-second.started

	assert.True(t, h.service.Cancel("dup"))
	assert.True(t, firstTask.Interrupted())
	assert.False(t, secondTask.Interrupted())

	// 첫 번째 작업이 정리 중이어도 두 번째 작업을 취소할 수 있어야 합니다.
	assert.True(t, h.service.Cancel("dup"))
	assert.True(t, secondTask.Interrupted())
	assert.Empty(t, h.publisher.Canceled(), "중단되지 않은 작업이 남아 있는 동안에는 알림을 제거하지 않아야 합니다")

	assert.False(t, h.service.Cancel("dup"))
	assert.Equal(t, []TaskKey{"dup"}, h.publisher.Canceled())
	assert.Equal(t, 2, h.service.Len())

	close(release)
	h.EventuallyEmpty()
}

// hookedUnwindingBody OnInterrupted 호출 횟수를 기록하는 unwindingBody입니다.
type hookedUnwindingBody struct {
	*unwindingBody

	mu    sync.Mutex
	calls int
}

func (b *hookedUnwindingBody) OnInterrupted(*Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
}

func (b *hookedUnwindingBody) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestService_CancelAll_SkipsAlreadyInterrupted(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1})

	release := make(chan struct{})
	body := &hookedUnwindingBody{unwindingBody: newUnwindingBody(release)}
	task := NewTask(Config{Discriminator: "slow"}, body)

	require.NoError(t, h.service.Submit(task))
	<-body.started

	assert.Equal(t, 1, h.service.CancelAll())
	assert.Equal(t, 1, body.Calls())

	// 정리 중인 작업은 목록에 남아 있지만 다시 중단되지 않습니다.
	require.Equal(t, 1, h.service.Len())
	assert.Equal(t, 0, h.service.CancelAll())
	h.service.InterruptAll()
	assert.Equal(t, 1, body.Calls())

	close(release)
	h.EventuallyEmpty()
}

func TestService_InFlight(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1})

	busy := newInterruptibleBody()
	require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: "busy"}, busy)))
	waitStarted(t, busy)

	require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: "waiting"}, noopBody())))
	require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: "waiting"}, noopBody())))

	assert.True(t, h.service.InFlight("busy"))
	assert.True(t, h.service.InFlight("waiting"), "대기열의 작업도 포함되어야 합니다")
	assert.Nil(t, h.service.FindByKey("waiting"))
	assert.False(t, h.service.InFlight("none"))

	h.service.Cancel("busy")
	h.EventuallyEmpty()
	assert.Eventually(t, func() bool { return !h.service.InFlight("waiting") }, time.Second, 5*time.Millisecond)
	assert.False(t, h.service.InFlight("busy"))
}

// =============================================================================
// 3. 실패 처리와 동시성
// =============================================================================

func TestService_FailingBodiesDoNotAffectOthers(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1})

	bodies := []Body{
		BodyFunc(func(*Task) error { panic("boom") }),
		BodyFunc(func(*Task) error { return errors.New("failure") }),
		BodyFunc(func(t *Task) error { return fmt.Errorf("wrapped: %w", ErrInterrupted) }),
	}
	for i, b := range bodies {
		require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: fmt.Sprintf("fail-%d", i)}, b)))
	}

	done := make(chan struct{})
	require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: "ok"}, BodyFunc(func(*Task) error {
		close(done)
		return nil
	}))))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("실패한 작업 이후의 작업이 실행되지 않았습니다")
	}

	h.EventuallyEmpty()
	assert.ElementsMatch(t, []TaskKey{"fail-0", "fail-1", "fail-2", "ok"}, h.publisher.Canceled())
}

func TestService_ForegroundInvariant_Concurrent(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 4})

	const n = 50
	var submitters sync.WaitGroup
	for i := 0; i < n; i++ {
		submitters.Add(1)
		go func(i int) {
			defer submitters.Done()

			task := NewTask(Config{}, BodyFunc(func(t *Task) error {
				time.Sleep(time.Duration(i%3) * time.Millisecond)
				t.PublishStatusText("진행 중")
				return nil
			}))
			assert.NoError(t, h.service.Submit(task))
		}(i)
	}
	submitters.Wait()

	h.EventuallyEmpty()
	assert.Eventually(t, func() bool { return !h.publisher.Foreground() }, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.publisher.Violations())

	h.publisher.mu.Lock()
	defer h.publisher.mu.Unlock()
	assert.Equal(t, h.publisher.shows, h.publisher.retires)
	assert.Len(t, h.publisher.canceled, n)
}

func TestService_SameKeyConcurrent(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 2})

	first := newInterruptibleBody()
	second := newInterruptibleBody()
	firstTask := NewTask(Config{Discriminator: "dup", Title: "first"}, first)
	secondTask := NewTask(Config{Discriminator: "dup", Title: "second"}, second)

	require.NoError(t, h.service.Submit(firstTask))
	waitStarted(t, first)
	require.NoError(t, h.service.Submit(secondTask))
	waitStarted(t, second)

	assert.Equal(t, 2, h.service.Len())
	assert.Same(t, firstTask, h.service.FindByKey("dup"), "먼저 등록된 작업이 조회되어야 합니다")

	firstTask.Interrupter().Interrupt(true)
	assert.Eventually(t, func() bool { return h.service.Len() == 1 }, time.Second, 5*time.Millisecond)

	assert.Empty(t, h.publisher.Canceled(), "같은 키의 작업이 남아 있으면 알림을 제거하지 않아야 합니다")
	published := h.publisher.PublishedFor("dup")
	assert.Equal(t, "second", published[len(published)-1].Title)

	secondTask.Interrupter().Interrupt(true)
	h.EventuallyEmpty()
	assert.Equal(t, []TaskKey{"dup"}, h.publisher.Canceled())
}

func TestService_Tasks(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 2})

	b := newInterruptibleBody()
	task := NewTask(Config{Discriminator: "listed", Title: "목록"}, b)
	require.NoError(t, h.service.Submit(task))
	waitStarted(t, b)

	l := &recordingListener{}
	task.AttachListener(l)
	task.SetTaskPosition(1, 4)

	infos := h.service.Tasks()
	require.Len(t, infos, 1)
	assert.Equal(t, TaskKey("listed"), infos[0].Key)
	assert.Equal(t, "목록", infos[0].Title)
	assert.True(t, infos[0].Attached)
	assert.Equal(t, Progress{Current: 1, Total: 4}, infos[0].Progress)

	h.service.Cancel("listed")
	h.EventuallyEmpty()
	assert.Empty(t, h.service.Tasks())
}

func TestService_OnInterruptedMayPublish(t *testing.T) {
	t.Parallel()

	h := startService(t, config.WorkerConfig{PoolSize: 1})

	b := &publishingOnInterrupt{interruptibleBody: newInterruptibleBody()}
	require.NoError(t, h.service.Submit(NewTask(Config{Discriminator: "pub"}, b)))
	waitStarted(t, b.interruptibleBody)

	returned := make(chan struct{})
	go func() {
		h.service.Cancel("pub")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("OnInterrupted에서 PublishStatusText를 호출하면 교착 상태에 빠지면 안 됩니다")
	}
	h.EventuallyEmpty()
}

type publishingOnInterrupt struct {
	*interruptibleBody
}

func (b *publishingOnInterrupt) OnInterrupted(t *Task) {
	t.PublishStatusText("취소 중")
}

func TestPool_FIFO(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []TaskKey
	done := make(chan struct{})

	p := newPool(1, func(t *Task) {
		mu.Lock()
		order = append(order, t.Key())
		if len(order) == 5 {
			close(done)
		}
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		require.True(t, p.submit(NewTask(Config{Discriminator: fmt.Sprint(i)}, noopBody())))
	}
	p.start()
	<-done

	assert.Empty(t, p.close())
	assert.False(t, p.submit(NewTask(Config{}, noopBody())))
	require.NoError(t, p.wait(context.Background()))

	assert.Equal(t, []TaskKey{"0", "1", "2", "3", "4"}, order)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/darkkaiser/share-worker/internal/config"
	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	applog "github.com/darkkaiser/share-worker/pkg/log"
)

// component 작업 서비스의 로깅용 컴포넌트 이름
const component = "worker.service"

// Publisher 작업 상태를 알림으로 표시하는 발행자입니다.
//
// 서비스는 작업 목록의 락을 잡은 채로 Publisher를 호출하므로, 구현체는 빠르게 반환해야 하며
// 서비스의 메서드를 다시 호출해서는 안 됩니다.
type Publisher interface {
	// Publish 작업 알림을 표시하거나 갱신합니다.
	Publish(info Info)

	// Cancel 작업 알림을 제거합니다. 알 수 없는 키여도 제거를 시도합니다.
	Cancel(key TaskKey)

	// ShowForeground 서비스 실행 중 알림을 표시합니다.
	ShowForeground()

	// RetireForeground 서비스 실행 중 알림을 내립니다.
	RetireForeground()
}

// Service 프로세스 단위의 작업 레지스트리이자 실행기입니다.
//
// 제출된 작업은 고정 크기 워커 풀에서 등록 → 실행 → 등록 해제 순서로 처리되며,
// 등록된 작업이 하나 이상 있는 동안에만 서비스 실행 중 알림이 표시됩니다.
//
// 작업 목록은 유일한 공유 상태이며, 조회와 변경은 모두 같은 락(mu) 안에서 이루어집니다.
//
// 주요 책임:
//   - 작업의 등록과 등록 해제, 그에 따른 알림 표시와 제거
//   - 키 단위 취소와 전체 취소
//   - 서비스 종료 시 대기 중인 작업과 실행 중인 작업의 중단 (userInitiated=false)
type Service struct {
	workerConfig config.WorkerConfig

	// publisher 작업 알림과 서비스 실행 중 알림을 표시하는 발행자입니다. 락(mu)을 잡은 채로 호출됩니다.
	publisher Publisher

	// pool 작업 본문을 실행하는 고정 크기 워커 풀입니다.
	pool *pool

	mu sync.Mutex

	// tasks 등록 순서대로 보관합니다. 같은 키의 작업이 동시에 여러 개 존재할 수 있습니다.
	tasks []*Task

	// queued 접수되었지만 아직 등록되지 않은 작업 수를 키별로 셉니다.
	// 워커가 대기열에서 꺼낸 뒤 등록하기 전까지의 작업도 포함됩니다.
	queued map[TaskKey]int

	// foreground 서비스 실행 중 알림의 표시 여부입니다.
	foreground bool

	// stopping 종료 처리가 시작되었는지 여부입니다. 이후에 등록되는 작업은 곧바로 중단됩니다.
	stopping bool

	runningMu sync.Mutex
	running   bool
	stopped   bool
}

// NewService 작업 서비스를 생성합니다.
func NewService(workerConfig config.WorkerConfig, publisher Publisher) *Service {
	size := workerConfig.PoolSize
	if size <= 0 {
		size = runtime.NumCPU()
	}

	s := &Service{
		workerConfig: workerConfig,

		publisher: publisher,

		queued: make(map[TaskKey]int),
	}
	s.pool = newPool(size, s.execute)

	return s
}

// Start 워커 풀을 시작하고 종료 신호를 기다리는 고루틴을 실행합니다.
//
// 서비스가 이미 시작되었거나 종료된 경우에는 경고 로그만 남기고 정상 반환합니다.
// 작업 본문이 실제로 끝나기를 기다리지 않으므로, 필요하면 종료 이후에 Drain()으로 대기합니다.
//
// 매개변수:
//   - serviceStopCtx: 서비스 종료 신호를 전달받는 컨텍스트입니다.
//     이 컨텍스트가 취소되면 새 작업 접수를 중단하고, 대기 중인 작업과 실행 중인 작업을 모두 userInitiated=false로 중단시킵니다.
//   - serviceStopWG: 종료 처리가 끝나면 Done()이 호출되는 WaitGroup입니다. 호출 전에 Add(1)이 되어 있어야 합니다.
//
// 반환값:
//   - error: Publisher가 주입되지 않은 경우 ErrPublisherNotInitialized를 반환합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 작업 서비스 초기화 프로세스를 시작합니다")

	if s.publisher == nil {
		defer serviceStopWG.Done()
		return ErrPublisherNotInitialized
	}

	if s.running || s.stopped {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("작업 서비스가 이미 시작되었습니다 (중복 호출)")
		return nil
	}

	s.running = true
	s.pool.start()

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()
		s.teardown()
	}()

	applog.WithComponentAndFields(component, applog.Fields{
		"pool_size": s.pool.size,
	}).Info("서비스 시작 완료: 작업 서비스가 정상적으로 초기화되었습니다")

	return nil
}

// teardown 서비스 종료 처리를 수행합니다. 작업 본문의 종료를 기다리지 않습니다.
func (s *Service) teardown() {
	s.runningMu.Lock()
	s.running = false
	s.stopped = true
	s.runningMu.Unlock()

	// 아직 시작되지 않은 작업은 등록되지 않았으므로 알림 없이 버립니다.
	pending := s.pool.close()

	// 워커가 이미 꺼냈지만 아직 등록하지 않은 작업은 두 목록 어디에도 없습니다.
	// stopping을 목록 복사와 같은 락 안에서 설정하여, 그런 작업은 registerWork()에서 중단되도록 합니다.
	s.mu.Lock()
	s.stopping = true
	for _, t := range pending {
		s.dequeueLocked(t.key)
	}
	running := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range pending {
		t.interrupter.Interrupt(false)
	}
	for _, t := range running {
		t.interrupter.Interrupt(false)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"running_count":   len(running),
		"discarded_count": len(pending),
	}).Info("작업 서비스 종료: 실행 중인 작업에 중단 신호를 보냈습니다")
}

// Drain 모든 워커 고루틴이 종료될 때까지 대기합니다. 서비스 종료 이후에만 반환되며, ctx가 먼저 끝나면 ctx.Err()를 반환합니다.
func (s *Service) Drain(ctx context.Context) error {
	return s.pool.wait(ctx)
}

// Submit 작업을 워커 풀에 넘깁니다. 호출자를 블로킹하지 않으며, 모든 워커가 바쁘면 작업은 대기열에서 순서를 기다립니다.
//
// 같은 키의 작업이 이미 실행 중인지는 검사하지 않습니다. 중복 실행을 막으려면 호출자가 FindByKey()로 먼저 확인해야 합니다.
func (s *Service) Submit(t *Task) error {
	if t == nil || t.body == nil {
		return ErrInvalidTask
	}
	if len(t.key) > MaxKeyLength {
		return apperrors.Newf(apperrors.InvalidInput, "작업 키가 최대 길이(%d바이트)를 초과했습니다: %d바이트", MaxKeyLength, len(t.key))
	}

	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.stopped {
		return ErrServiceStopped
	}
	if !s.running {
		return ErrServiceNotRunning
	}

	// 워커가 등록하기 전에 카운트가 올라가 있어야 하므로 대기열에 넣기 전에 셉니다.
	s.mu.Lock()
	s.queued[t.key]++
	s.mu.Unlock()

	if !s.pool.submit(t) {
		s.mu.Lock()
		s.dequeueLocked(t.key)
		s.mu.Unlock()

		return ErrServiceStopped
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"task_key": t.key,
		"title":    t.Title(),
		"pending":  s.pool.pending(),
	}).Debug("작업 접수: 워커 풀 대기열에 추가되었습니다")

	return nil
}

// execute 워커 고루틴에서 작업 하나의 전체 생명주기를 감독합니다.
// 본문이 정상 종료, 에러, 중단, 패닉 중 어떤 경로로 끝나더라도 등록 해제는 본문 반환 이후에 한 번 수행됩니다.
func (s *Service) execute(t *Task) {
	if stopping := s.registerWork(t); stopping {
		t.interrupter.Interrupt(false)
	}

	err := s.runBody(t)

	s.unregisterWork(t)

	fields := applog.Fields{
		"task_key":    t.key,
		"title":       t.Title(),
		"interrupted": t.Interrupted(),
	}

	switch {
	case err == nil:
		applog.WithComponentAndFields(component, fields).Debug("작업 완료")

	case isCancellation(err):
		fields["user_initiated"] = t.interrupter.UserInitiated()
		applog.WithComponentAndFields(component, fields).Debug("작업 중단: 취소 요청을 관찰하고 정상적으로 종료되었습니다")

	default:
		fields["error"] = err
		applog.WithComponentAndFields(component, fields).Error("작업 실패: 작업 본문이 에러를 반환하였습니다")
	}
}

// isCancellation 협조적 취소로 인한 종료인지 판별합니다.
func isCancellation(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) || apperrors.Is(err, apperrors.Canceled)
}

// runBody 작업 본문을 실행하고, 패닉은 에러로 변환합니다.
func (s *Service) runBody(t *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.Internal, fmt.Sprintf("작업 실행 중 패닉이 발생하였습니다: %v", r))
		}
	}()

	return t.body.Run(t)
}

// registerWork 작업을 목록에 추가하고, 서비스 실행 중 알림과 작업 알림을 표시합니다.
//
// 반환값:
//   - stopping: 종료 처리가 이미 시작되었으면 true입니다. 호출자는 락 밖에서 작업을 중단시켜야 합니다.
func (s *Service) registerWork(t *Task) (stopping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dequeueLocked(t.key)
	s.tasks = append(s.tasks, t)
	t.bind(s.refresh, s.workerConfig.StatusThrottle)

	if !s.foreground {
		s.foreground = true
		s.publisher.ShowForeground()
	}

	s.publishLocked(t)

	return s.stopping
}

func (s *Service) dequeueLocked(key TaskKey) {
	if s.queued[key] <= 1 {
		delete(s.queued, key)
		return
	}
	s.queued[key]--
}

// unregisterWork 작업 알림을 제거하고 목록에서 뺍니다. 목록이 비면 서비스 실행 중 알림을 내립니다.
func (s *Service) unregisterWork(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.unbind()

	for i, registered := range s.tasks {
		if registered == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}

	// 같은 키의 다른 작업이 아직 중단되지 않았으면 알림을 제거하지 않고 그 작업의 상태로 다시 그립니다.
	if other := s.findLiveLocked(t.key); other != nil {
		s.publishLocked(other)
	} else {
		s.publisher.Cancel(t.key)
	}

	if len(s.tasks) == 0 && s.foreground {
		s.foreground = false
		s.publisher.RetireForeground()
	}
}

// refresh Task.PublishStatusText()가 알림 갱신을 요청할 때 호출됩니다.
func (s *Service) refresh(t *Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, registered := range s.tasks {
		if registered == t {
			s.publishLocked(t)
			t.markNotified()
			return true
		}
	}

	return false
}

// publishLocked 작업 알림을 그립니다. 등록 시점과 등록 해제 시점의 알림은 갱신 간격 제한과 관계가 없으므로
// LastNotifiedAt은 refresh()를 거친 갱신에서만 기록됩니다.
func (s *Service) publishLocked(t *Task) {
	s.publisher.Publish(t.Info())
}

// FindByKey 실행 중인 작업 중 키가 일치하는 첫 번째 작업을 반환합니다. 없으면 nil입니다.
func (s *Service) FindByKey(key TaskKey) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findLocked(key)
}

func (s *Service) findLocked(key TaskKey) *Task {
	for _, t := range s.tasks {
		if t.key == key {
			return t
		}
	}
	return nil
}

// findLiveLocked 키가 일치하면서 아직 중단되지 않은 첫 번째 작업을 반환합니다.
func (s *Service) findLiveLocked(key TaskKey) *Task {
	for _, t := range s.tasks {
		if t.key == key && !t.Interrupted() {
			return t
		}
	}
	return nil
}

// InFlight 같은 키의 작업이 대기열에 있거나 등록되어 있으면 true를 반환합니다.
//
// FindByKey()는 등록된 작업만 보므로, 중복 제출을 막으려는 호출자는 이 메서드를 사용해야 합니다.
// 대기열의 작업이 등록으로 넘어가는 순간에도 같은 락 안에서 판단하므로 빈틈이 없습니다.
func (s *Service) InFlight(key TaskKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queued[key] > 0 || s.findLocked(key) != nil
}

// InterruptAll 실행 중인 모든 작업을 사용자 요청으로 중단시키고 각 작업의 OnInterrupted를 호출합니다.
func (s *Service) InterruptAll() {
	s.CancelAll()
}

// CancelAll InterruptAll과 같으며, 이번 호출로 중단된 작업 수를 반환합니다.
//
// 목록은 락 안에서 복사하고 중단 처리는 락 밖에서 수행합니다. Closer나 OnInterrupted가
// PublishStatusText()처럼 서비스를 다시 호출하더라도 교착 상태에 빠지지 않습니다.
func (s *Service) CancelAll() int {
	count := 0
	for _, t := range s.snapshot() {
		if s.interrupt(t) {
			count++
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"interrupted_count": count,
	}).Info("전체 작업 취소 요청 처리 완료")

	return count
}

// Cancel 키에 해당하는 실행 중인 작업 중 아직 중단되지 않은 첫 번째 작업을 중단시킵니다.
//
// 같은 키의 작업이 여러 개이면 이미 중단되어 정리 중인 작업은 건너뜁니다.
// 중단할 작업이 없으면 에러 없이 남아 있는 알림만 제거하고 false를 반환합니다.
// 알림의 취소 액션처럼 이전 프로세스가 남긴 키로 요청이 들어오는 경우가 이에 해당합니다.
func (s *Service) Cancel(key TaskKey) bool {
	s.mu.Lock()
	t := s.findLiveLocked(key)
	if t == nil {
		// 같은 키로 새 작업이 등록되는 것과 엇갈리지 않도록 락 안에서 제거합니다.
		s.publisher.Cancel(key)
		s.mu.Unlock()

		applog.WithComponentAndFields(component, applog.Fields{
			"task_key": key,
		}).Debug("작업 취소 요청: 실행 중인 작업이 없어 남아 있는 알림만 제거합니다")

		return false
	}
	s.mu.Unlock()

	interrupted := s.interrupt(t)

	applog.WithComponentAndFields(component, applog.Fields{
		"task_key": key,
		"title":    t.Title(),
	}).Info("작업 취소 요청 처리 완료")

	return interrupted
}

// interrupt 작업을 사용자 요청으로 중단시키고, 이번 호출로 중단되었다면 OnInterrupted를 호출합니다.
func (s *Service) interrupt(t *Task) bool {
	if !t.interrupter.trigger(true) {
		return false
	}

	if h, ok := t.body.(InterruptHandler); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					applog.WithComponentAndFields(component, applog.Fields{
						"task_key": t.key,
						"panic":    r,
					}).Error("OnInterrupted 실행 중 패닉이 발생하여 복구하였습니다")
				}
			}()

			h.OnInterrupted(t)
		}()
	}

	return true
}

func (s *Service) snapshot() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*Task(nil), s.tasks...)
}

// Tasks 실행 중인 작업들의 스냅샷을 등록 순서대로 반환합니다.
func (s *Service) Tasks() []Info {
	tasks := s.snapshot()

	infos := make([]Info, 0, len(tasks))
	for _, t := range tasks {
		infos = append(infos, t.Info())
	}

	return infos
}

// Len 실행 중인 작업 수를 반환합니다.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

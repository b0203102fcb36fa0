// Package scheduler 설정에 정의된 파일 정리 작업을 Cron 스케줄에 맞춰 제출합니다.
package scheduler

import (
	"context"
	"sync"

	"github.com/darkkaiser/share-worker/internal/config"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	"github.com/darkkaiser/share-worker/internal/service/worker/organize"
	"github.com/darkkaiser/share-worker/pkg/concurrency"
	"github.com/darkkaiser/share-worker/pkg/cronx"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// DiscriminatorPrefix 스케줄로 제출되는 작업 식별자의 접두사입니다.
const DiscriminatorPrefix = "schedule:"

// Registry 스케줄러가 사용하는 작업 레지스트리 기능입니다. worker.Service가 구현합니다.
type Registry interface {
	Submit(t *worker.Task) error
	InFlight(key worker.TaskKey) bool
}

// Scheduler 설정된 스케줄마다 파일 정리 작업을 제출합니다.
// 같은 스케줄의 이전 작업이 아직 대기 중이거나 실행 중이면 이번 회차는 건너뜁니다.
type Scheduler struct {
	schedules []config.ScheduleConfig

	cron *cron.Cron

	registry Registry
	repo     organize.Repository

	// triggerLocks 같은 스케줄의 회차가 겹쳐 호출되더라도 확인과 제출을 직렬화합니다.
	triggerLocks concurrency.KeyedMutex[string]

	running   bool
	runningMu sync.Mutex
}

// NewService Scheduler 인스턴스를 생성합니다.
func NewService(schedules []config.ScheduleConfig, registry Registry, repo organize.Repository) *Scheduler {
	if repo == nil {
		panic("Repository는 필수입니다")
	}

	return &Scheduler{
		schedules: schedules,

		registry: registry,
		repo:     repo,
	}
}

// Start 스케줄을 Cron 엔진에 등록하고 시작합니다.
// serviceStopCtx가 취소되면 엔진을 중지한 뒤 serviceStopWG를 해제합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Scheduler 서비스 시작중...")

	if s.registry == nil {
		serviceStopWG.Done()
		return ErrRegistryNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 시작됨!!!")
		return nil
	}

	logger := cron.VerbosePrintfLogger(applog.StandardLogger())
	s.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)

	registered := s.registerSchedules()

	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"registered_schedules": registered,
		"total_schedules":      len(s.schedules),
	}).Info("Scheduler 서비스 시작됨")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop 스케줄러를 중지합니다. 이미 제출된 작업은 작업 레지스트리에서 계속 실행됩니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("Scheduler 서비스 중지중...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 중지됨")
}

func (s *Scheduler) registerSchedules() int {
	registered := 0

	for _, sc := range s.schedules {
		if _, err := s.cron.AddFunc(sc.TimeSpec, func() { s.trigger(sc) }); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"schedule_id": sc.ID,
				"error":       NewErrInvalidCronSpec(sc.ID, sc.TimeSpec, err),
			}).Error("스케줄을 등록하지 못해 건너뜁니다")
			continue
		}

		registered++
	}

	return registered
}

// trigger 스케줄 한 회차를 실행합니다.
func (s *Scheduler) trigger(sc config.ScheduleConfig) {
	discriminator := DiscriminatorPrefix + sc.ID

	fields := applog.Fields{
		"schedule_id": sc.ID,
		"task_key":    discriminator,
	}

	s.triggerLocks.Lock(sc.ID)
	defer s.triggerLocks.Unlock(sc.ID)

	if s.registry.InFlight(worker.TaskKey(discriminator)) {
		applog.WithComponentAndFields(component, fields).Info("이전 회차의 작업이 아직 대기 중이거나 실행 중이어서 건너뜁니다")
		return
	}

	t, groupID := organize.NewTask(s.repo, organize.Request{
		Paths:         sc.Paths,
		Discriminator: discriminator,
		Title:         sc.Title,
	})

	if err := s.registry.Submit(t); err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(component, fields).Error("스케줄 작업 제출에 실패했습니다")
		return
	}

	fields["group_id"] = groupID
	applog.WithComponentAndFields(component, fields).Info("스케줄 작업 제출")
}

package notification

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/share-worker/internal/config"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	applog "github.com/darkkaiser/share-worker/pkg/log"
)

// component 알림 발행자의 로깅용 컴포넌트 이름
const component = "notification.publisher"

const (
	// defaultTaskTitle 제목 없이 제출된 작업의 알림 제목입니다.
	defaultTaskTitle = "백그라운드 작업"

	// backendCallTimeout 백엔드 호출 하나에 허용하는 최대 시간입니다.
	backendCallTimeout = 10 * time.Second

	// shutdownFlushTimeout 종료 시 대기열에 남은 알림을 처리하기 위해 기다리는 최대 시간입니다.
	shutdownFlushTimeout = 5 * time.Second
)

type opKind int

const (
	opShow opKind = iota
	opCancel
)

type op struct {
	kind opKind
	id   string
	n    Notification
}

// Publisher 작업 상태를 알림으로 변환하여 백엔드에 전달합니다. worker.Publisher를 구현합니다.
//
// 작업 서비스는 락을 잡은 채로 Publisher를 호출하므로, 모든 메서드는 대기열에 요청을 넣고 즉시 반환합니다.
// 백엔드 호출은 단일 고루틴에서 요청 순서대로 수행되며, 아직 처리되지 않은 같은 알림의 갱신은 최신 내용으로 합쳐집니다.
type Publisher struct {
	notificationConfig config.NotificationConfig

	backend Backend

	mu sync.Mutex
	// notifications 처음 발행될 때 만들어지고, 이후에는 내용만 갱신됩니다.
	notifications map[worker.TaskKey]*Notification
	foreground    *Notification
	queue         []op
	stopped       bool

	wakeC chan struct{}

	runningMu sync.Mutex
	running   bool
}

var _ worker.Publisher = (*Publisher)(nil)

// NewPublisher 알림 발행자를 생성합니다.
func NewPublisher(notificationConfig config.NotificationConfig, backend Backend) *Publisher {
	if backend == nil {
		backend = NewLogBackend()
	}

	return &Publisher{
		notificationConfig: notificationConfig,

		backend: backend,

		notifications: make(map[worker.TaskKey]*Notification),

		wakeC: make(chan struct{}, 1),
	}
}

// Start 대기열을 처리하는 고루틴을 시작합니다.
// serviceStopCtx가 취소되면 남은 요청을 제한 시간 안에서 처리한 뒤 serviceStopWG.Done()을 호출합니다.
func (p *Publisher) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("알림 발행자가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	p.running = true

	go p.run(serviceStopCtx, serviceStopWG)

	applog.WithComponent(component).Info("서비스 시작 완료: 알림 발행자가 정상적으로 초기화되었습니다")

	return nil
}

// Publish 작업 알림을 표시하거나 갱신합니다.
// 처음 발행될 때 취소 액션을 포함한 알림을 만들고, 이후에는 제목과 문구만 갱신합니다.
func (p *Publisher) Publish(info worker.Info) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.notifications[info.Key]
	if !ok {
		n = p.build(info)
		p.notifications[info.Key] = n
	} else {
		p.update(n, info)
	}

	p.enqueueLocked(op{kind: opShow, id: n.ID, n: *n})
}

func (p *Publisher) build(info worker.Info) *Notification {
	n := &Notification{
		ID:           info.Key.String(),
		CancelAction: info.Key.String(),
	}
	p.update(n, info)

	return n
}

func (p *Publisher) update(n *Notification, info worker.Info) {
	n.Title = info.Title
	if n.Title == "" {
		n.Title = defaultTaskTitle
	}
	n.Text = info.StatusText
	n.Icon = info.Icon
	if n.Icon == "" {
		n.Icon = p.notificationConfig.DefaultIcon
	}
	n.ContentAction = info.ContentAction
	n.Progress = info.Progress
}

// Cancel 작업 알림을 제거합니다. 이 프로세스가 만든 알림이 아니더라도 백엔드에 제거를 요청합니다.
func (p *Publisher) Cancel(key worker.TaskKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.notifications, key)
	p.enqueueLocked(op{kind: opCancel, id: key.String()})
}

// ShowForeground 서비스 실행 중 알림을 표시합니다. 알림 내용은 처음 한 번만 만들어집니다.
func (p *Publisher) ShowForeground() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.foreground == nil {
		p.foreground = &Notification{
			ID:         ForegroundID,
			Title:      p.notificationConfig.ForegroundTitle,
			Text:       p.notificationConfig.ForegroundText,
			Icon:       p.notificationConfig.DefaultIcon,
			Foreground: true,
		}
	}

	p.enqueueLocked(op{kind: opShow, id: ForegroundID, n: *p.foreground})
}

// RetireForeground 서비스 실행 중 알림을 내립니다.
func (p *Publisher) RetireForeground() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enqueueLocked(op{kind: opCancel, id: ForegroundID})
}

func (p *Publisher) enqueueLocked(o op) {
	if p.stopped {
		applog.WithComponentAndFields(component, applog.Fields{
			"id": o.id,
		}).Debug("알림 발행자가 종료되어 알림 요청을 버립니다")
		return
	}

	// 아직 처리되지 않은 같은 알림의 표시 요청은 최신 내용으로 교체합니다.
	if o.kind == opShow {
		for i := len(p.queue) - 1; i >= 0; i-- {
			if p.queue[i].id != o.id {
				continue
			}
			if p.queue[i].kind == opShow {
				p.queue[i] = o
				return
			}
			break
		}
	}

	p.queue = append(p.queue, o)

	select {
	case p.wakeC <- struct{}{}:
	default:
	}
}

func (p *Publisher) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case <-p.wakeC:
			p.drain(serviceStopCtx)

		case <-serviceStopCtx.Done():
			p.mu.Lock()
			p.stopped = true
			p.mu.Unlock()

			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			p.drain(flushCtx)
			cancel()

			p.mu.Lock()
			dropped := len(p.queue)
			p.queue = nil
			p.mu.Unlock()

			applog.WithComponentAndFields(component, applog.Fields{
				"dropped_count": dropped,
			}).Info("알림 발행자 종료")

			return
		}
	}
}

// drain 대기열이 비거나 ctx가 끝날 때까지 백엔드를 호출합니다. 처리하지 못한 요청은 대기열에 남습니다.
func (p *Publisher) drain(ctx context.Context) {
	for ctx.Err() == nil {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		o := p.queue[0]
		p.queue[0] = op{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.dispatch(ctx, o)
	}
}

func (p *Publisher) dispatch(ctx context.Context, o op) {
	callCtx, cancel := context.WithTimeout(ctx, backendCallTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"id":    o.id,
				"panic": r,
			}).Error("알림 백엔드 호출 중 패닉이 발생하여 복구하였습니다")
		}
	}()

	var err error
	switch o.kind {
	case opShow:
		err = p.backend.Show(callCtx, o.n)
	case opCancel:
		err = p.backend.Cancel(callCtx, o.id)
	}

	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"id":    o.id,
			"op":    o.kind,
			"error": err,
		}).Warn("알림 백엔드 호출 실패")
	}
}

func (k opKind) String() string {
	if k == opCancel {
		return "cancel"
	}
	return "show"
}

package worker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultStatusThrottle 작업 알림을 다시 그리는 최소 간격입니다.
	DefaultStatusThrottle = 2 * time.Second

	// MaxKeyLength 작업 키의 최대 바이트 길이입니다.
	// 키는 알림의 취소 액션 페이로드로 전달되므로 텔레그램 callback_data 한도(64바이트)를 따릅니다.
	MaxKeyLength = 64
)

// TaskKey 작업을 조회하고 취소할 때 사용하는 식별자입니다.
type TaskKey string

func (k TaskKey) String() string {
	return string(k)
}

// Body 작업의 실제 수행 로직입니다.
//
// Run은 작업 고루틴에서 한 번 호출됩니다. 본문은 안전한 지점마다 t.Interrupted()를 확인하고,
// 중단되었다면 t.Interrupter().Err()를 반환하여 종료해야 합니다.
type Body interface {
	Run(t *Task) error
}

// BodyFunc 일반 함수를 Body로 사용하기 위한 어댑터입니다.
type BodyFunc func(t *Task) error

func (f BodyFunc) Run(t *Task) error {
	return f(t)
}

// InterruptHandler 외부에서 취소가 요청되었을 때 작업별 중단 동작이 필요한 Body가 구현합니다.
type InterruptHandler interface {
	OnInterrupted(t *Task)
}

// Config 작업 생성 시 지정하는 설정입니다.
type Config struct {
	// Discriminator 호출자가 지정하는 작업 식별자입니다. 논리적으로 같은 요청은 같은 값을 사용해야 합니다.
	// 비어 있으면 임의의 UUID가 사용됩니다.
	Discriminator string

	Title      string
	StatusText string

	// Icon 알림 아이콘 식별자 (비어 있으면 알림 측 기본 아이콘)
	Icon string

	// ContentAction 알림을 눌렀을 때 연결할 후속 동작 (선택)
	ContentAction string

	// StatusThrottle 알림 갱신 최소 간격 (0: 서비스 설정값, 서비스 설정도 없으면 DefaultStatusThrottle)
	StatusThrottle time.Duration

	// Interrupter 외부에서 주입할 취소 토큰 (nil: 새로 생성)
	Interrupter *Interrupter

	// Now 테스트용 시계 (nil: time.Now)
	Now func() time.Time
}

// refresher 등록된 작업의 알림 갱신을 서비스에 요청하는 함수입니다.
type refresher func(t *Task) bool

// Task 백그라운드에서 실행되는 작업 단위입니다.
//
// 제목, 상태, 아이콘 같은 메타데이터와 취소 토큰을 가지며, 선택적으로 Listener를 연결할 수 있습니다.
// 상태 문구는 관례적으로 작업 고루틴에서만 변경하고, 취소 플래그는 어느 고루틴에서든 설정할 수 있습니다.
type Task struct {
	key  TaskKey
	body Body

	interrupter *Interrupter
	now         func() time.Time

	mu             sync.RWMutex
	title          string
	statusText     string
	icon           string
	contentAction  string
	lastNotifiedAt time.Time

	// limiter 알림 갱신 간격을 제한하는 토큰 버킷 (버스트 1)
	limiter          *rate.Limiter
	throttleExplicit bool

	// refresh 등록 상태에서만 설정됩니다.
	refresh refresher

	attachment attachment
}

// NewTask 설정과 본문으로 새 작업을 생성합니다.
func NewTask(cfg Config, body Body) *Task {
	key := TaskKey(cfg.Discriminator)
	if key == "" {
		key = TaskKey(uuid.NewString())
	}

	interrupter := cfg.Interrupter
	if interrupter == nil {
		interrupter = NewInterrupter()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	throttle := cfg.StatusThrottle
	if throttle <= 0 {
		throttle = DefaultStatusThrottle
	}

	return &Task{
		key:  key,
		body: body,

		interrupter: interrupter,
		now:         now,

		title:         cfg.Title,
		statusText:    cfg.StatusText,
		icon:          cfg.Icon,
		contentAction: cfg.ContentAction,

		limiter:          rate.NewLimiter(rate.Every(throttle), 1),
		throttleExplicit: cfg.StatusThrottle > 0,
	}
}

func (t *Task) Key() TaskKey {
	return t.key
}

func (t *Task) Interrupter() *Interrupter {
	return t.interrupter
}

// Interrupted 작업 취소 토큰의 중단 여부를 반환합니다.
func (t *Task) Interrupted() bool {
	return t.interrupter.Interrupted()
}

func (t *Task) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.title
}

func (t *Task) StatusText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.statusText
}

func (t *Task) Icon() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.icon
}

func (t *Task) ContentAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.contentAction
}

// LastNotifiedAt PublishStatusText()로 마지막으로 알림이 갱신된 시각입니다. 한 번도 갱신되지 않았다면 제로값입니다.
// 등록 시점의 알림 표시는 갱신 간격 제한에 포함되지 않으므로 여기에 기록되지 않습니다.
func (t *Task) LastNotifiedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.lastNotifiedAt
}

// SetTitle 제출 이후에도 변경할 수 있으며, 다음 알림 갱신 때 반영됩니다.
func (t *Task) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()
}

func (t *Task) SetIcon(icon string) {
	t.mu.Lock()
	t.icon = icon
	t.mu.Unlock()
}

func (t *Task) SetContentAction(action string) {
	t.mu.Lock()
	t.contentAction = action
	t.mu.Unlock()
}

// PublishStatusText 상태 문구를 변경하고, 필요하면 작업 알림의 갱신을 요청합니다.
//
// 연결된 Listener가 있으면 매 호출마다 먼저 전달합니다. 알림 갱신은 한 번도 갱신된 적이 없거나
// 마지막 갱신 이후 설정된 간격(기본 2초) 이상 지났을 때만 요청하며, 실제로 갱신 요청을 보냈는지를 반환합니다.
// 서비스에 등록되지 않은 작업은 상태 문구만 변경됩니다.
func (t *Task) PublishStatusText(text string) bool {
	if l := t.Listener(); l != nil {
		l.UpdateTaskStatus(text)
	}

	t.mu.Lock()
	t.statusText = text
	refresh := t.refresh
	if refresh == nil {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	if !t.limiter.AllowN(now, 1) {
		t.mu.Unlock()
		return false
	}
	t.mu.Unlock()

	return refresh(t)
}

// Info 현재 상태의 스냅샷을 반환합니다.
func (t *Task) Info() Info {
	t.mu.RLock()
	info := Info{
		Key:            t.key,
		Title:          t.title,
		StatusText:     t.statusText,
		Icon:           t.icon,
		ContentAction:  t.contentAction,
		LastNotifiedAt: t.lastNotifiedAt,
	}
	t.mu.RUnlock()

	info.Interrupted = t.Interrupted()
	info.Attached = t.Attached()
	info.Progress = t.Progress()

	return info
}

// bind 서비스가 작업을 등록할 때 호출합니다.
func (t *Task) bind(refresh refresher, throttle time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refresh = refresh
	if !t.throttleExplicit && throttle > 0 {
		t.limiter.SetLimitAt(t.now(), rate.Every(throttle))
	}
}

// unbind 서비스가 작업 등록을 해제할 때 호출합니다.
func (t *Task) unbind() {
	t.mu.Lock()
	t.refresh = nil
	t.mu.Unlock()
}

func (t *Task) markNotified() {
	now := t.now()

	t.mu.Lock()
	t.lastNotifiedAt = now
	t.mu.Unlock()
}

// Info 작업 상태의 스냅샷입니다. 알림 계층과 제어 API에서 사용합니다.
type Info struct {
	Key            TaskKey   `json:"key"`
	Title          string    `json:"title"`
	StatusText     string    `json:"status_text"`
	Icon           string    `json:"icon,omitempty"`
	ContentAction  string    `json:"content_action,omitempty"`
	LastNotifiedAt time.Time `json:"last_notified_at"`
	Interrupted    bool      `json:"interrupted"`
	Attached       bool      `json:"attached"`
	Progress       Progress  `json:"progress"`
}

package worker

import (
	"sync"
	"sync/atomic"

	applog "github.com/darkkaiser/share-worker/pkg/log"
)

// Closer 중단 시점에 한 번 실행되는 정리 함수입니다.
// userInitiated는 사용자의 취소 요청(true)인지 서비스 종료에 의한 중단(false)인지를 전달합니다.
type Closer func(userInitiated bool)

// Interrupter 협조적 취소 토큰입니다.
//
// 한 번 중단되면 다시 되돌릴 수 없으며, 등록된 Closer는 등록 순서대로 정확히 한 번만,
// Interrupt()를 호출한 고루틴에서 동기적으로 실행됩니다.
//
// 제로값은 바로 사용할 수 있습니다.
type Interrupter struct {
	mu sync.Mutex

	interrupted   atomic.Bool
	userInitiated bool

	closers []Closer

	done chan struct{}
}

// NewInterrupter 새 Interrupter를 생성합니다.
func NewInterrupter() *Interrupter {
	return &Interrupter{}
}

// Interrupt 중단 플래그를 설정하고 등록된 Closer를 실행합니다.
// 이미 중단된 상태에서 다시 호출하면 아무 일도 일어나지 않습니다.
//
// 중단 요청은 즉시 반환되며, 작업 본문의 실제 종료는 작업 고루틴에서 비동기로 이루어집니다.
func (i *Interrupter) Interrupt(userInitiated bool) {
	i.trigger(userInitiated)
}

// trigger 이번 호출로 중단 상태가 되었다면 true를 반환합니다.
func (i *Interrupter) trigger(userInitiated bool) bool {
	i.mu.Lock()
	if i.interrupted.Load() {
		i.mu.Unlock()
		return false
	}

	i.userInitiated = userInitiated
	i.interrupted.Store(true)
	close(i.doneLocked())

	closers := i.closers
	i.closers = nil
	i.mu.Unlock()

	// Closer가 Interrupted() 등을 호출할 수 있도록 락 밖에서 실행합니다.
	for _, fn := range closers {
		runCloser(fn, userInitiated)
	}

	return true
}

// Interrupted 중단 여부를 반환합니다.
func (i *Interrupter) Interrupted() bool {
	return i.interrupted.Load()
}

// UserInitiated 최초 중단이 사용자 요청에 의한 것이었는지 반환합니다.
// 중단되지 않은 상태에서는 false입니다.
func (i *Interrupter) UserInitiated() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.userInitiated
}

// AddCloser 중단 시점에 실행될 정리 함수를 등록합니다.
// 이미 중단된 상태라면 최초 중단 시의 userInitiated 값으로 즉시 실행합니다.
func (i *Interrupter) AddCloser(fn Closer) {
	if fn == nil {
		return
	}

	i.mu.Lock()
	if i.interrupted.Load() {
		userInitiated := i.userInitiated
		i.mu.Unlock()

		runCloser(fn, userInitiated)
		return
	}

	i.closers = append(i.closers, fn)
	i.mu.Unlock()
}

// Done 중단 시 닫히는 채널을 반환합니다. 블로킹 작업에서 select 구문과 함께 사용합니다.
func (i *Interrupter) Done() <-chan struct{} {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.doneLocked()
}

// Err 중단된 경우 ErrInterrupted를, 그렇지 않으면 nil을 반환합니다.
func (i *Interrupter) Err() error {
	if i.Interrupted() {
		return ErrInterrupted
	}
	return nil
}

func (i *Interrupter) doneLocked() chan struct{} {
	if i.done == nil {
		i.done = make(chan struct{})
	}
	return i.done
}

// runCloser Closer 하나의 패닉이 나머지 Closer 실행을 막지 않도록 복구합니다.
func runCloser(fn Closer, userInitiated bool) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic":          r,
				"user_initiated": userInitiated,
			}).Error("작업 정리 함수(Closer) 실행 중 패닉이 발생하여 복구하였습니다")
		}
	}()

	fn(userInitiated)
}

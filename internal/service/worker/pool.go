package worker

import (
	"context"
	"sync"
)

// pool 고정된 수의 워커 고루틴과 크기 제한이 없는 FIFO 대기열로 구성된 실행기입니다.
//
// submit()은 호출자를 블로킹하지 않으며, 모든 워커가 바쁘면 작업은 대기열에 쌓입니다.
type pool struct {
	size int
	run  func(t *Task)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Task
	closed bool

	workers sync.WaitGroup
}

func newPool(size int, run func(t *Task)) *pool {
	p := &pool{
		size: size,
		run:  run,
	}
	p.cond = sync.NewCond(&p.mu)

	return p
}

func (p *pool) start() {
	p.workers.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.work()
	}
}

// submit 작업을 대기열에 추가합니다. 이미 닫힌 경우 false를 반환합니다.
func (p *pool) submit(t *Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.queue = append(p.queue, t)
	p.cond.Signal()

	return true
}

// close 새 작업을 더 이상 받지 않고, 아직 시작되지 않은 작업들을 대기열에서 꺼내 반환합니다.
// 워커는 실행 중인 작업을 마치면 종료됩니다.
func (p *pool) close() []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	pending := p.queue
	p.queue = nil
	p.cond.Broadcast()

	return pending
}

// pending 대기 중인 작업 수를 반환합니다.
func (p *pool) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue)
}

// wait 모든 워커가 종료될 때까지 대기합니다. ctx가 먼저 끝나면 ctx.Err()를 반환합니다.
func (p *pool) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) work() {
	defer p.workers.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}

		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(t)
	}
}

package worker

import "sync"

// Listener 작업의 진행 상황을 전달받는 관찰자입니다 (예: 화면, 채팅 세션).
//
// 모든 콜백은 작업 고루틴에서 동기적으로 호출되며, 스레드 안전성은 구현체가 책임집니다.
// OnAttachedToTask만 예외적으로 AttachListener()를 호출한 고루틴에서 호출됩니다.
type Listener interface {
	OnAttachedToTask(t *Task)
	SetTaskPosition(ofTotal, total int)
	UpdateTaskPosition(deltaOfTotal, deltaTotal int)
	UpdateTaskStatus(text string)
}

// Progress 작업이 직접 보관하는 진행 카운터입니다. Listener의 연결 여부와 무관하게 유지됩니다.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

type attachment struct {
	mu       sync.Mutex
	listener Listener
	progress Progress
}

// AttachListener Listener를 연결하고 연결 사실을 즉시 알립니다.
// 기존 Listener는 교체되며 작업의 진행 카운터는 변하지 않습니다. 놓친 갱신은 재전송되지 않습니다.
func (t *Task) AttachListener(l Listener) {
	if l == nil {
		t.DetachAnchor()
		return
	}

	t.attachment.mu.Lock()
	t.attachment.listener = l
	t.attachment.mu.Unlock()

	l.OnAttachedToTask(t)
}

// DetachAnchor Listener 연결을 해제합니다. 작업은 계속 실행되며 이후 다시 연결할 수 있습니다.
func (t *Task) DetachAnchor() {
	t.attachment.mu.Lock()
	t.attachment.listener = nil
	t.attachment.mu.Unlock()
}

// Listener 현재 연결된 Listener를 반환합니다. 연결되지 않았다면 nil입니다.
func (t *Task) Listener() Listener {
	t.attachment.mu.Lock()
	defer t.attachment.mu.Unlock()

	return t.attachment.listener
}

func (t *Task) Attached() bool {
	return t.Listener() != nil
}

// Progress 작업의 진행 카운터를 반환합니다.
func (t *Task) Progress() Progress {
	t.attachment.mu.Lock()
	defer t.attachment.mu.Unlock()

	return t.attachment.progress
}

// SetTaskPosition 진행 카운터를 지정한 값으로 설정하고 Listener에 전달합니다.
func (t *Task) SetTaskPosition(ofTotal, total int) {
	t.attachment.mu.Lock()
	t.attachment.progress = Progress{Current: ofTotal, Total: total}
	l := t.attachment.listener
	t.attachment.mu.Unlock()

	if l != nil {
		l.SetTaskPosition(ofTotal, total)
	}
}

// UpdateTaskPosition 진행 카운터를 증감하고 변화량을 Listener에 전달합니다.
func (t *Task) UpdateTaskPosition(deltaOfTotal, deltaTotal int) {
	t.attachment.mu.Lock()
	t.attachment.progress.Current += deltaOfTotal
	t.attachment.progress.Total += deltaTotal
	l := t.attachment.listener
	t.attachment.mu.Unlock()

	if l != nil {
		l.UpdateTaskPosition(deltaOfTotal, deltaTotal)
	}
}

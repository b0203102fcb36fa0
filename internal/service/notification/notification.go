package notification

import (
	"context"

	"github.com/darkkaiser/share-worker/internal/service/worker"
)

// ForegroundID 서비스 실행 중 알림의 예약된 식별자입니다.
const ForegroundID = "share-worker.foreground"

// Notification 백엔드에 표시할 알림 하나의 내용입니다.
type Notification struct {
	// ID 알림 식별자. 작업 알림은 작업 키, 서비스 실행 중 알림은 ForegroundID입니다.
	ID string

	Title string
	Text  string
	Icon  string

	// ContentAction 알림을 눌렀을 때 연결할 후속 동작 (선택)
	ContentAction string

	// CancelAction 취소 액션의 페이로드. 백엔드는 사용자가 취소를 누르면 이 값을 그대로 되돌려줘야 합니다.
	// 서비스 실행 중 알림에는 취소 액션이 없습니다.
	CancelAction string

	Progress worker.Progress

	// Foreground 서비스 실행 중 알림 여부
	Foreground bool
}

// Backend 실제 알림 시스템(로그, 텔레그램 등)과의 연결을 추상화합니다.
//
// 같은 ID로 Show가 반복 호출되면 기존 알림을 갱신해야 하며, 알 수 없는 ID에 대한 Cancel은 에러가 아닙니다.
type Backend interface {
	Show(ctx context.Context, n Notification) error
	Cancel(ctx context.Context, id string) error
}

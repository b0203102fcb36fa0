package notification

import (
	"context"

	applog "github.com/darkkaiser/share-worker/pkg/log"
)

const logBackendComponent = "notification.log"

// logBackend 알림을 구조화 로그로 남기는 기본 백엔드입니다.
type logBackend struct{}

// NewLogBackend 로그 백엔드를 생성합니다. 외부 알림 시스템이 설정되지 않았을 때 사용합니다.
func NewLogBackend() Backend {
	return logBackend{}
}

func (logBackend) Show(_ context.Context, n Notification) error {
	applog.WithComponentAndFields(logBackendComponent, applog.Fields{
		"id":             n.ID,
		"title":          n.Title,
		"text":           n.Text,
		"icon":           n.Icon,
		"content_action": n.ContentAction,
		"cancel_action":  n.CancelAction,
		"progress":       n.Progress,
		"foreground":     n.Foreground,
	}).Info("알림 표시")

	return nil
}

func (logBackend) Cancel(_ context.Context, id string) error {
	applog.WithComponentAndFields(logBackendComponent, applog.Fields{
		"id": id,
	}).Info("알림 제거")

	return nil
}

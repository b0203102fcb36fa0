// Package response v1 API의 응답 모델을 정의합니다.
package response

import (
	"github.com/darkkaiser/share-worker/internal/service/worker"
	"github.com/darkkaiser/share-worker/internal/store"
)

// TaskListResponse 실행 중인 작업 목록
type TaskListResponse struct {
	Tasks []worker.Info `json:"tasks"`
}

// CancelResponse 취소 요청 결과
type CancelResponse struct {
	// Canceled 실행 중인 작업을 실제로 취소한 개수
	Canceled int `json:"canceled"`
}

// OrganizeResponse 파일 정리 작업 접수 결과
type OrganizeResponse struct {
	Key     worker.TaskKey `json:"key"`
	GroupID string         `json:"group_id"`
}

// GroupListResponse 저장된 전송 그룹 목록
type GroupListResponse struct {
	Groups []store.Group `json:"groups"`
}

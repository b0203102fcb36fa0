// Package v1 /api/v1 하위의 작업 제어 라우트를 등록합니다.
package v1

import (
	"github.com/darkkaiser/share-worker/internal/service/api/middleware"
	"github.com/darkkaiser/share-worker/internal/service/api/v1/handler"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes v1 라우트를 등록합니다. appKey가 설정되어 있으면 모든 엔드포인트에 인증이 적용됩니다.
//
//   - GET    /api/v1/tasks           실행 중인 작업 목록
//   - DELETE /api/v1/tasks           모든 작업 취소
//   - DELETE /api/v1/tasks/:key      키로 작업 취소
//   - POST   /api/v1/tasks/organize  파일 정리 작업 제출
//   - GET    /api/v1/groups          저장된 전송 그룹 목록
func RegisterRoutes(e *echo.Echo, h *handler.Handler, appKey string) {
	g := e.Group("/api/v1", middleware.RequireAppKey(appKey))

	g.GET("/tasks", h.ListTasksHandler)
	g.DELETE("/tasks", h.CancelAllTasksHandler)
	g.DELETE("/tasks/:key", h.CancelTaskHandler)
	g.POST("/tasks/organize", h.SubmitOrganizeHandler, middleware.ValidateContentType(echo.MIMEApplicationJSON))

	g.GET("/groups", h.ListGroupsHandler)
}

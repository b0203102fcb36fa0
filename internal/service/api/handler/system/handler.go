// Package system 인증이 필요 없는 시스템 엔드포인트(헬스체크, 버전 정보) 핸들러를 제공합니다.
package system

import (
	"net/http"
	"time"

	"github.com/darkkaiser/share-worker/internal/pkg/version"
	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// TaskCounter 실행 중인 작업 수를 제공합니다. worker.Service가 구현합니다.
type TaskCounter interface {
	Len() int
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status       string `json:"status"`
	Uptime       int64  `json:"uptime"`
	RunningTasks int    `json:"running_tasks"`
}

// Handler 시스템 엔드포인트 핸들러
type Handler struct {
	tasks TaskCounter

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(tasks TaskCounter, buildInfo version.Info) *Handler {
	if tasks == nil {
		panic("TaskCounter는 필수입니다")
	}

	return &Handler{
		tasks: tasks,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler 서버 가동 시간과 실행 중인 작업 수를 반환합니다.
//
// @Summary 서버 헬스체크
// @Description 서버 상태와 가동 시간, 실행 중인 작업 수를 반환합니다.
// @Description 인증 없이 호출 가능하며, 모니터링 시스템에서 사용됩니다.
// @Description
// @Description 응답 필드:
// @Description - status: 서버 상태 (healthy)
// @Description - uptime: 서버 가동 시간(초)
// @Description - running_tasks: 작업 레지스트리에 등록된 작업 수
// @Tags System
// @Produce json
// @Success 200 {object} system.HealthResponse "헬스체크 결과"
// @Router /health [get]
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	return c.JSON(http.StatusOK, HealthResponse{
		Status:       constants.HealthStatusHealthy,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		RunningTasks: h.tasks.Len(),
	})
}

// VersionHandler 빌드 정보를 반환합니다.
//
// @Summary 서버 버전 정보
// @Description 서버의 버전, Git 커밋 해시, 빌드 날짜, Go 버전과 플랫폼을 반환합니다.
// @Description 디버깅 및 배포 버전 확인에 사용됩니다.
// @Tags System
// @Produce json
// @Success 200 {object} version.Info "버전 정보"
// @Router /version [get]
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, h.buildInfo)
}

// Package handler v1 API의 작업 제어 핸들러를 제공합니다.
package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	apihandler "github.com/darkkaiser/share-worker/internal/service/api/handler"
	"github.com/darkkaiser/share-worker/internal/service/api/httputil"
	"github.com/darkkaiser/share-worker/internal/service/api/v1/model/request"
	v1response "github.com/darkkaiser/share-worker/internal/service/api/v1/model/response"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	"github.com/darkkaiser/share-worker/internal/service/worker/organize"
	"github.com/darkkaiser/share-worker/internal/store"
	"github.com/darkkaiser/share-worker/pkg/concurrency"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// Registry 작업 레지스트리의 제어 기능입니다. worker.Service가 구현합니다.
type Registry interface {
	Submit(t *worker.Task) error
	InFlight(key worker.TaskKey) bool
	Tasks() []worker.Info
	Cancel(key worker.TaskKey) bool
	CancelAll() int
}

// Store 전송 목록 저장소입니다. store.Store가 구현합니다.
type Store interface {
	organize.Repository
	Groups(ctx context.Context) ([]store.Group, error)
}

// Handler v1 API 요청을 작업 레지스트리와 저장소로 연결합니다.
type Handler struct {
	registry Registry
	store    Store

	// submitLocks 같은 식별자의 "실행 여부 확인 → 제출" 구간을 요청 간에 직렬화합니다.
	submitLocks *concurrency.KeyedMutex[worker.TaskKey]
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(registry Registry, store Store) *Handler {
	if registry == nil {
		panic("Registry는 필수입니다")
	}
	if store == nil {
		panic("Store는 필수입니다")
	}

	return &Handler{
		registry: registry,
		store:    store,

		submitLocks: concurrency.NewKeyedMutex[worker.TaskKey](),
	}
}

// ListTasksHandler 실행 중인 작업 목록을 등록 순서대로 반환합니다.
//
// @Summary 실행 중인 작업 목록
// @Description 작업 레지스트리에 등록된 작업의 스냅샷을 등록 순서대로 반환합니다.
// @Description 대기열에서 아직 시작되지 않은 작업은 포함되지 않습니다.
// @Tags Task
// @Produce json
// @Param X-App-Key header string false "Application Key (인증용)"
// @Success 200 {object} v1response.TaskListResponse "실행 중인 작업 목록"
// @Failure 401 {object} response.ErrorResponse "인증 실패"
// @Security ApiKeyAuth
// @Router /api/v1/tasks [get]
func (h *Handler) ListTasksHandler(c echo.Context) error {
	tasks := h.registry.Tasks()
	if tasks == nil {
		tasks = []worker.Info{}
	}

	return c.JSON(http.StatusOK, v1response.TaskListResponse{Tasks: tasks})
}

// CancelTaskHandler 키로 작업을 취소합니다.
// 실행 중인 작업이 없더라도 남아 있는 알림을 정리하므로 항상 200을 반환합니다.
//
// @Summary 작업 취소
// @Description 키가 일치하는 실행 중인 작업 중 아직 중단되지 않은 첫 번째 작업을 취소합니다.
// @Description 취소할 작업이 없으면 canceled=0을 반환하며, 이전 실행에서 남은 알림은 제거됩니다.
// @Tags Task
// @Produce json
// @Param X-App-Key header string false "Application Key (인증용)"
// @Param key path string true "작업 키 (URL 인코딩)" example(organize:nightly)
// @Success 200 {object} v1response.CancelResponse "취소 결과"
// @Failure 400 {object} response.ErrorResponse "잘못된 작업 키"
// @Failure 401 {object} response.ErrorResponse "인증 실패"
// @Security ApiKeyAuth
// @Router /api/v1/tasks/{key} [delete]
func (h *Handler) CancelTaskHandler(c echo.Context) error {
	raw, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgInvalidBody)
	}
	key := worker.TaskKey(raw)

	canceled := 0
	if h.registry.Cancel(key) {
		canceled = 1
	}

	h.log(c).WithFields(applog.Fields{
		"task_key": key,
		"canceled": canceled,
	}).Info("작업 취소 요청 처리")

	return c.JSON(http.StatusOK, v1response.CancelResponse{Canceled: canceled})
}

// CancelAllTasksHandler 실행 중인 모든 작업을 취소합니다.
//
// @Summary 모든 작업 취소
// @Description 실행 중인 모든 작업을 사용자 요청으로 중단시키고, 이번 요청으로 중단된 작업 수를 반환합니다.
// @Tags Task
// @Produce json
// @Param X-App-Key header string false "Application Key (인증용)"
// @Success 200 {object} v1response.CancelResponse "취소 결과"
// @Failure 401 {object} response.ErrorResponse "인증 실패"
// @Security ApiKeyAuth
// @Router /api/v1/tasks [delete]
func (h *Handler) CancelAllTasksHandler(c echo.Context) error {
	n := h.registry.CancelAll()

	h.log(c).WithField("canceled", n).Info("전체 작업 취소 요청 처리")

	return c.JSON(http.StatusOK, v1response.CancelResponse{Canceled: n})
}

// SubmitOrganizeHandler 파일 정리 작업을 제출합니다.
//
// 식별자가 지정되었고 같은 키의 작업이 대기 중이거나 실행 중이면 409를 반환합니다.
// 같은 식별자로 동시에 들어온 요청은 하나만 접수되고 나머지는 409를 받습니다.
// 작업은 비동기로 실행되므로 접수되면 202를 반환합니다.
//
// @Summary 파일 정리 작업 제출
// @Description 경로 목록을 전송 목록으로 정리하는 작업을 백그라운드 워커에 제출합니다.
// @Description
// @Description ## 중복 실행 방지
// @Description discriminator를 지정하면 같은 식별자의 작업이 대기 중이거나 실행 중일 때 409를 반환합니다.
// @Description
// @Description ## 사용 예시
// @Description ```bash
// @Description curl -X POST "http://localhost:2443/api/v1/tasks/organize" \
// @Description   -H "Content-Type: application/json" \
// @Description   -H "X-App-Key: your-app-key" \
// @Description   -d '{"paths":["/data/share/a.jpg"],"discriminator":"manual:1","title":"수동 정리"}'
// @Description ```
// @Tags Task
// @Accept json
// @Produce json
// @Param X-App-Key header string false "Application Key (인증용)"
// @Param request body request.OrganizeRequest true "정리할 경로 목록"
// @Success 202 {object} v1response.OrganizeResponse "작업 접수"
// @Failure 400 {object} response.ErrorResponse "잘못된 요청 (경로 누락, JSON 형식 오류 등)"
// @Failure 401 {object} response.ErrorResponse "인증 실패"
// @Failure 409 {object} response.ErrorResponse "같은 식별자의 작업이 이미 대기 중이거나 실행 중"
// @Failure 415 {object} response.ErrorResponse "Content-Type이 application/json이 아님"
// @Failure 503 {object} response.ErrorResponse "작업 서비스가 실행 중이 아님"
// @Security ApiKeyAuth
// @Router /api/v1/tasks/organize [post]
func (h *Handler) SubmitOrganizeHandler(c echo.Context) error {
	req := new(request.OrganizeRequest)
	if err := c.Bind(req); err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgInvalidBody)
	}
	if err := apihandler.ValidateRequest(req); err != nil {
		return httputil.NewBadRequestError(apihandler.FormatValidationError(err))
	}

	if req.Discriminator != "" {
		key := worker.TaskKey(req.Discriminator)
		if !h.submitLocks.TryLock(key) {
			return httputil.NewConflictError(constants.ErrMsgTaskAlreadyRunning)
		}
		defer h.submitLocks.Unlock(key)

		if h.registry.InFlight(key) {
			return httputil.NewConflictError(constants.ErrMsgTaskAlreadyRunning)
		}
	}

	t, groupID := organize.NewTask(h.store, organize.Request{
		Paths:         req.Paths,
		Discriminator: req.Discriminator,
		Title:         req.Title,
	})

	if err := h.registry.Submit(t); err != nil {
		switch {
		case errors.Is(err, worker.ErrServiceStopped), errors.Is(err, worker.ErrServiceNotRunning):
			return httputil.NewServiceUnavailableError(constants.ErrMsgServiceUnavailable)
		case apperrors.Is(err, apperrors.InvalidInput):
			return httputil.NewBadRequestError(constants.ErrMsgTaskKeyTooLong)
		default:
			return err
		}
	}

	h.log(c).WithFields(applog.Fields{
		"task_key":   t.Key(),
		"group_id":   groupID,
		"path_count": len(req.Paths),
	}).Info("파일 정리 작업 접수")

	return c.JSON(http.StatusAccepted, v1response.OrganizeResponse{
		Key:     t.Key(),
		GroupID: groupID,
	})
}

// ListGroupsHandler 저장된 전송 그룹 목록을 반환합니다.
//
// @Summary 전송 그룹 목록
// @Description 파일 정리 작업으로 저장된 전송 그룹을 생성 순서대로 반환합니다.
// @Tags Group
// @Produce json
// @Param X-App-Key header string false "Application Key (인증용)"
// @Success 200 {object} v1response.GroupListResponse "전송 그룹 목록"
// @Failure 401 {object} response.ErrorResponse "인증 실패"
// @Failure 500 {object} response.ErrorResponse "저장소 조회 실패"
// @Security ApiKeyAuth
// @Router /api/v1/groups [get]
func (h *Handler) ListGroupsHandler(c echo.Context) error {
	groups, err := h.store.Groups(c.Request().Context())
	if err != nil {
		h.log(c).WithField("error", err).Error(constants.ErrMsgStoreQueryFailed)
		return httputil.NewInternalServerError(constants.ErrMsgStoreQueryFailed)
	}
	if groups == nil {
		groups = []store.Group{}
	}

	return c.JSON(http.StatusOK, v1response.GroupListResponse{Groups: groups})
}

func (h *Handler) log(c echo.Context) *applog.Entry {
	return applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"method":     c.Request().Method,
		"path":       c.Path(),
		"remote_ip":  c.RealIP(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

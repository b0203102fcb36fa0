// Package api 작업 제어용 REST API 서버를 제공합니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "github.com/darkkaiser/share-worker/docs"
	"github.com/darkkaiser/share-worker/internal/config"
	"github.com/darkkaiser/share-worker/internal/pkg/version"
	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	"github.com/darkkaiser/share-worker/internal/service/api/handler/system"
	v1 "github.com/darkkaiser/share-worker/internal/service/api/v1"
	v1handler "github.com/darkkaiser/share-worker/internal/service/api/v1/handler"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 5 * time.Second

// Registry 제어 API가 사용하는 작업 레지스트리 기능입니다. worker.Service가 구현합니다.
type Registry interface {
	v1handler.Registry
	system.TaskCounter
}

// Service 제어 API 서버의 생명주기를 관리합니다.
// Start로 시작하고 전달한 context가 취소되면 Graceful Shutdown 후 WaitGroup을 해제합니다.
type Service struct {
	appConfig *config.AppConfig

	registry Registry
	store    v1handler.Store

	buildInfo version.Info

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, registry Registry, store v1handler.Store, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}

	return &Service{
		appConfig: appConfig,

		registry: registry,
		store:    store,

		buildInfo: buildInfo,
	}
}

// Start 서버를 별도 고루틴에서 시작하고 즉시 반환합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("제어 API 서비스 시작중...")

	if s.registry == nil || s.store == nil {
		defer serviceStopWG.Done()
		return ErrRegistryNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(constants.ComponentService).Warn("제어 API 서비스가 이미 시작됨!!!")
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(constants.ComponentService).Info("제어 API 서비스 시작됨")

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

func (s *Service) setupServer() *echo.Echo {
	e := NewHTTPServer(HTTPServerConfig{
		Debug:          s.appConfig.Debug,
		AllowOrigins:   s.appConfig.ControlAPI.AllowOrigins,
		RequestTimeout: s.appConfig.ControlAPI.RequestTimeout,
	})

	RegisterRoutes(e, system.NewHandler(s.registry, s.buildInfo))
	v1.RegisterRoutes(e, v1handler.NewHandler(s.registry, s.store), s.appConfig.ControlAPI.AppKey)

	return e
}

func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	port := s.appConfig.ControlAPI.ListenPort
	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port": port,
	}).Debug("HTTP 서버 시작")

	s.handleServerError(e.Start(fmt.Sprintf(":%d", port)))
}

// handleServerError http.ErrServerClosed는 정상 종료로 간주하고, 그 외의 에러만 Error로 기록합니다.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info("HTTP 서버 종료됨")
		return
	}

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port":  s.appConfig.ControlAPI.ListenPort,
		"error": err,
	}).Error("HTTP 서버를 구동하는 중에 치명적인 오류가 발생하였습니다")
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info("제어 API 서비스 중지중...")

	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 서버가 먼저 종료됨
		applog.WithComponent(constants.ComponentService).Error("HTTP 서버가 예기치 않게 종료되었습니다")

		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 종료 중 오류가 발생하였습니다")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("제어 API 서비스 중지됨")
}

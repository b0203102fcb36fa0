package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/darkkaiser/share-worker/internal/config"
	"github.com/darkkaiser/share-worker/internal/pkg/version"
	"github.com/darkkaiser/share-worker/internal/service"
	"github.com/darkkaiser/share-worker/internal/service/api"
	"github.com/darkkaiser/share-worker/internal/service/notification"
	"github.com/darkkaiser/share-worker/internal/service/notification/telegram"
	"github.com/darkkaiser/share-worker/internal/service/scheduler"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	"github.com/darkkaiser/share-worker/internal/store"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/spf13/cobra"
)

// @title Share Worker API
// @version 1.0.0
// @description 공유 폴더 파일 정리 작업을 백그라운드 워커로 실행하고, 진행 상황을 텔레그램으로 알리는 서버의 제어 API입니다.
// @description
// @description ## 주요 기능
// @description - 실행 중인 작업 조회 및 취소
// @description - 파일 정리 작업 제출
// @description - 저장된 전송 그룹 조회
// @description
// @description ## 인증 방법
// @description 설정 파일(share-worker.json)의 control_api.app_key가 지정되어 있으면 /api/v1 하위의 모든 엔드포인트에 인증이 필요합니다.
// @description X-App-Key 헤더 또는 app_key 쿼리 파라미터로 키를 전달하세요.
// @description    - 키 누락 또는 불일치: 401 Unauthorized

// @contact.name DarkKaiser
// @contact.url https://github.com/DarkKaiser
// @contact.email darkkaiser@gmail.com

// @license.name MIT

// @host localhost:2443
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-App-Key
// @description Application Key for authentication

// drainTimeout 종료 시 작업 본문이 끝나기를 기다리는 최대 시간
const drainTimeout = 30 * time.Second

const banner = `
  ____   _                            __        __            _
 / ___| | |__    __ _  _ __  ___      \ \      / /___   _ __ | | __ ___  _ __
 \___ \ | '_ \  / _' || '__|/ _ \      \ \ /\ / // _ \ | '__|| |/ // _ \| '__|
  ___) || | | || (_| || |  |  __/       \ V  V /| (_) || |   |   <|  __/| |
 |____/ |_| |_| \__,_||_|   \___|        \_/\_/  \___/ |_|   |_|\_\\___||_|
                                                                   %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "공유 파일 정리 작업을 백그라운드에서 실행하는 서버",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Get().String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	rootCmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultFilename, "설정 파일 경로")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "빌드 정보를 출력합니다",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	})

	return rootCmd
}

func run(configFile string) error {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		return err
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)\n", err)
		return err
	}
	defer appLogCloser.Close()

	applog.SetDebugMode(appConfig.Debug)

	buildInfo := version.Get()
	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", applog.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("서버 초기화 시작")

	for _, w := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(w)
	}

	// 3. 저장소
	st, err := store.Open(appConfig.Store.Path)
	if err != nil {
		applog.WithComponentAndFields("main", applog.Fields{"error": err}).Error("저장소 열기 실패")
		return err
	}
	defer st.Close()

	// 4. 알림 백엔드와 작업 서비스
	var backend notification.Backend
	var telegramBackend *telegram.Backend
	if appConfig.Notification.Telegram.Enabled {
		if telegramBackend, err = telegram.NewBackend(appConfig.Notification.Telegram); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{"error": err}).Error("텔레그램 알림 백엔드 초기화 실패")
			return err
		}
		backend = telegramBackend
	} else {
		applog.WithComponent("main").Info("텔레그램 알림이 비활성화되어 로그 백엔드를 사용합니다")
	}

	publisher := notification.NewPublisher(appConfig.Notification, backend)
	workerService := worker.NewService(appConfig.Worker, publisher)

	// 작업을 제출하는 서비스들
	producers := []service.Service{workerService}
	if telegramBackend != nil {
		telegramBackend.SetCanceler(workerService)
		producers = append(producers, telegramBackend)
	}
	if appConfig.ControlAPI.Enabled {
		producers = append(producers, api.NewService(appConfig, workerService, st, buildInfo))
	}
	producers = append(producers, scheduler.NewService(appConfig.Schedules, workerService, st))

	// 알림 발행자는 작업이 모두 정리된 뒤에 멈춰야 마지막 알림 제거까지 전달됩니다.
	notifyStopCtx, notifyCancel := context.WithCancel(context.Background())
	notifyStopWG := &sync.WaitGroup{}
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	shutdown := func() {
		cancel()
		serviceStopWG.Wait()

		drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
		defer drainCancel()
		if err := workerService.Drain(drainCtx); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{"error": err}).Warn("제한 시간 안에 끝나지 않은 작업이 있습니다")
		}

		notifyCancel()
		notifyStopWG.Wait()
	}

	notifyStopWG.Add(1)
	if err := publisher.Start(notifyStopCtx, notifyStopWG); err != nil {
		notifyCancel()
		return err
	}

	for _, s := range producers {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			shutdown()
			return err
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(termC)

	applog.WithComponent("main").Info("서버 가동 완료")

	<-termC

	applog.WithComponent("main").Info("종료 신호 수신")
	shutdown()
	applog.WithComponent("main").Info("서버 종료 완료")

	return nil
}

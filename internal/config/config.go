package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "share-worker"

	// DefaultFilename 실행 인자로 경로가 주어지지 않았을 때 읽는 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// EnvPrefix 설정값을 덮어쓰는 환경 변수의 접두사입니다.
	EnvPrefix = "SHARE_WORKER_"

	DefaultStatusThrottle  = "2s"
	DefaultDefaultIcon     = "autorenew"
	DefaultForegroundTitle = "작업 진행 중"
	DefaultForegroundText  = "백그라운드 작업 서비스가 실행 중입니다"
	DefaultStorePath       = "data/share-worker.db"
	DefaultListenPort      = 2443
	DefaultRequestTimeout  = "30s"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug        bool               `json:"debug"`
	Worker       WorkerConfig       `json:"worker"`
	Notification NotificationConfig `json:"notification"`
	Store        StoreConfig        `json:"store"`
	ControlAPI   ControlAPIConfig   `json:"control_api"`
	Schedules    []ScheduleConfig   `json:"schedules" validate:"dive"`
}

// WorkerConfig 작업 레지스트리와 워커 풀 설정
type WorkerConfig struct {
	// PoolSize 워커 고루틴 수 (0: runtime.NumCPU())
	PoolSize int `json:"pool_size" validate:"min=0,max=256"`

	// StatusThrottle 작업 알림 갱신 최소 간격
	StatusThrottle time.Duration `json:"status_throttle" validate:"gt=0"`
}

// NotificationConfig 작업 알림 표시 설정
type NotificationConfig struct {
	DefaultIcon     string         `json:"default_icon" validate:"required"`
	ForegroundTitle string         `json:"foreground_title" validate:"required"`
	ForegroundText  string         `json:"foreground_text"`
	Telegram        TelegramConfig `json:"telegram"`
}

// TelegramConfig 텔레그램 알림 백엔드 설정. Enabled가 false이면 로그 백엔드를 사용합니다.
type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token" validate:"required_if=Enabled true,omitempty,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required_if=Enabled true"`
}

// StoreConfig 전송 목록 저장소 설정
type StoreConfig struct {
	Path string `json:"path" validate:"required"`
}

// ControlAPIConfig 작업 제어용 REST API 설정
type ControlAPIConfig struct {
	Enabled        bool          `json:"enabled"`
	ListenPort     int           `json:"listen_port" validate:"min=1,max=65535"`
	AppKey         string        `json:"app_key"`
	AllowOrigins   []string      `json:"allow_origins" validate:"dive,required,cors_origin"`
	RequestTimeout time.Duration `json:"request_timeout" validate:"gt=0"`
}

// ScheduleConfig 주기적으로 실행할 파일 정리 작업 정의
type ScheduleConfig struct {
	ID       string   `json:"id" validate:"required"`
	Title    string   `json:"title"`
	TimeSpec string   `json:"time_spec" validate:"required,cron_spec"`
	Paths    []string `json:"paths" validate:"min=1,dive,required"`
}

// VerifyRecommendations 강제하지는 않지만 권장되지 않는 설정에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if c.ControlAPI.Enabled && strings.TrimSpace(c.ControlAPI.AppKey) == "" {
		warnings = append(warnings, "제어 API에 APP_KEY가 설정되지 않아 인증 없이 작업을 취소할 수 있습니다")
	}
	if c.ControlAPI.Enabled && c.ControlAPI.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d)", c.ControlAPI.ListenPort))
	}
	if c.Worker.StatusThrottle < time.Second {
		warnings = append(warnings, fmt.Sprintf("알림 갱신 간격(%v)이 1초보다 짧아 알림 시스템에 부하를 줄 수 있습니다", c.Worker.StatusThrottle))
	}

	return warnings
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 기본값, JSON 설정 파일, 환경 변수 순으로 설정을 병합하여 AppConfig를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 예: SHARE_WORKER_CONTROL_API__LISTEN_PORT -> control_api.listen_port
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	var appConfig AppConfig
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &appConfig,
		},
	}
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

func defaults() map[string]any {
	return map[string]any{
		"worker.pool_size":              0,
		"worker.status_throttle":        DefaultStatusThrottle,
		"notification.default_icon":     DefaultDefaultIcon,
		"notification.foreground_title": DefaultForegroundTitle,
		"notification.foreground_text":  DefaultForegroundText,
		"store.path":                    DefaultStorePath,
		"control_api.enabled":           true,
		"control_api.listen_port":       DefaultListenPort,
		"control_api.allow_origins":     []string{"*"},
		"control_api.request_timeout":   DefaultRequestTimeout,
	}
}

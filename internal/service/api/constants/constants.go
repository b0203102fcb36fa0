// Package constants 제어 API 전반에서 공유하는 상수를 정의합니다.
package constants

import "time"

// 로깅용 컴포넌트 이름
const (
	ComponentService      = "api.service"
	ComponentHandler      = "api.handler"
	ComponentMiddleware   = "api.middleware"
	ComponentErrorHandler = "api.error_handler"
)

// HTTP 서버 기본값
const (
	DefaultReadTimeout       = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 60 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultRequestTimeout    = 30 * time.Second

	// DefaultMaxBodySize 요청 본문 최대 크기 (echo BodyLimit 형식)
	DefaultMaxBodySize = "1M"

	DefaultRateLimitPerSecond = 20
	DefaultRateLimitBurst     = 40
)

// 인증
const (
	HeaderAppKey     = "X-App-Key"
	QueryParamAppKey = "app_key"
)

// HealthStatusHealthy 헬스체크 정상 상태
const HealthStatusHealthy = "healthy"

// 사용자에게 반환하는 에러 메시지
const (
	ErrMsgInternalServer       = "내부 서버 오류가 발생했습니다"
	ErrMsgNotFound             = "요청한 리소스를 찾을 수 없습니다"
	ErrMsgTooManyRequests      = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"
	ErrMsgInvalidBody          = "잘못된 요청 형식입니다"
	ErrMsgUnsupportedMediaType = "지원하지 않는 Content-Type입니다. application/json으로 요청해주세요"
	ErrMsgAppKeyRequired       = "APP_KEY가 필요합니다"
	ErrMsgAppKeyInvalid        = "APP_KEY가 유효하지 않습니다"
	ErrMsgServiceUnavailable   = "작업 서비스가 실행 중이 아닙니다"
	ErrMsgTaskAlreadyRunning   = "같은 식별자의 작업이 이미 실행 중입니다"
	ErrMsgTaskKeyTooLong       = "작업 식별자가 너무 깁니다"
	ErrMsgStoreQueryFailed     = "전송 그룹 조회에 실패했습니다"
)

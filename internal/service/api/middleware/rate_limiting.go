package middleware

import (
	"sync"

	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	"github.com/darkkaiser/share-worker/internal/service/api/httputil"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ipRateLimiter IP 주소별 토큰 버킷을 관리합니다.
//
// 동시성:
//   - 이미 등록된 IP의 조회는 RLock만 잡습니다.
//   - 새 IP의 버킷 생성은 Lock을 잡은 뒤 다시 확인하므로, 같은 IP에 버킷이 두 개 생기지 않습니다.
//
// 메모리:
//   - 한 번 추가된 IP는 서버 재시작 전까지 유지됩니다.
//   - 제어 API는 내부망의 소수 클라이언트만 호출하므로 만료 처리는 두지 않습니다.
type ipRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// newIPRateLimiter 빈 IP 테이블을 가진 Rate Limiter를 생성합니다.
//
// 매개변수:
//   - requestsPerSecond: 초당 보충되는 토큰 수
//   - burst: 버킷 크기 (한 번에 허용되는 최대 요청 수)
func newIPRateLimiter(requestsPerSecond int, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// getLimiter ip의 버킷을 반환하고, 없으면 새로 만들어 등록합니다.
func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limiters[ip]
	i.mu.RUnlock()

	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if limiter, exists = i.limiters[ip]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(i.rate, i.burst)
	i.limiters[ip] = limiter

	return limiter
}

// RateLimiting IP별 요청 수를 토큰 버킷(golang.org/x/time/rate)으로 제한하는 미들웨어를 반환합니다.
//
// 요청마다 토큰 1개를 소비하며, 토큰이 없으면 핸들러를 호출하지 않고
// Retry-After: 1 헤더와 함께 429 Too Many Requests로 응답합니다.
// IP는 echo.Context.RealIP()로 판별하므로 프록시 뒤에서는 IPExtractor 설정을 따릅니다.
//
// 매개변수:
//   - requestsPerSecond: IP당 초당 허용 요청 수 (양수)
//   - burst: IP당 순간 허용 요청 수 (양수)
//
// 반환값:
//   - echo.MiddlewareFunc: 서버 인스턴스 단위로 IP 테이블을 공유하는 미들웨어
//
// Panics:
//   - requestsPerSecond 또는 burst가 0 이하인 경우
func RateLimiting(requestsPerSecond int, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		panic("[RateLimiting] requestsPerSecond는 양수여야 합니다")
	}
	if burst <= 0 {
		panic("[RateLimiting] burst는 양수여야 합니다")
	}

	limiter := newIPRateLimiter(requestsPerSecond, burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.getLimiter(ip).Allow() {
				applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
					"remote_ip": ip,
					"path":      c.Request().URL.Path,
					"method":    c.Request().Method,
				}).Warn("Rate limit 초과")

				c.Response().Header().Set("Retry-After", "1")
				return httputil.NewTooManyRequestsError(constants.ErrMsgTooManyRequests)
			}

			return next(c)
		}
	}
}

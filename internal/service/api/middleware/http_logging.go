package middleware

import (
	"net/url"
	"strconv"
	"time"

	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/darkkaiser/share-worker/pkg/strutil"
	"github.com/labstack/echo/v4"
)

// sensitiveQueryParams 로그에 남기기 전에 값을 마스킹할 쿼리 파라미터
var sensitiveQueryParams = []string{
	constants.QueryParamAppKey,
	"token",
	"password",
}

// HTTPLogger HTTP 요청/응답을 구조화된 로그로 기록하는 미들웨어를 반환합니다.
// 핸들러 에러는 이 미들웨어에서 에러 핸들러로 넘겨, 기록되는 상태 코드가 실제 응답과 같도록 합니다.
func HTTPLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			defer func() {
				latency := time.Since(start)

				bytesIn := req.Header.Get(echo.HeaderContentLength)
				if bytesIn == "" {
					bytesIn = "0"
				}

				applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
					"method":        req.Method,
					"uri":           maskSensitiveQueryParams(req.RequestURI),
					"remote_ip":     c.RealIP(),
					"user_agent":    req.UserAgent(),
					"status":        res.Status,
					"bytes_in":      bytesIn,
					"bytes_out":     strconv.FormatInt(res.Size, 10),
					"latency":       strconv.FormatInt(latency.Microseconds(), 10),
					"latency_human": latency.String(),
					"request_id":    res.Header().Get(echo.HeaderXRequestID),
				}).Info("HTTP 요청")
			}()

			if err := next(c); err != nil {
				c.Error(err)
			}

			return nil
		}
	}
}

// maskSensitiveQueryParams URI의 민감한 쿼리 파라미터 값을 마스킹합니다. 파싱에 실패하면 원본을 반환합니다.
//
//	입력: "/api/v1/tasks?app_key=secret123456789"
//	출력: "/api/v1/tasks?app_key=secr%2A%2A%2A6789"
func maskSensitiveQueryParams(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}

	q := u.Query()
	masked := false
	for _, param := range sensitiveQueryParams {
		if q.Has(param) {
			q.Set(param, strutil.MaskSensitiveData(q.Get(param)))
			masked = true
		}
	}

	if !masked {
		return uri
	}

	u.RawQuery = q.Encode()
	return u.String()
}

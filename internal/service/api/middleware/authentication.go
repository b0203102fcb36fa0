package middleware

import (
	"crypto/subtle"

	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	"github.com/darkkaiser/share-worker/internal/service/api/httputil"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// RequireAppKey 설정된 APP_KEY와 요청의 키를 비교하는 미들웨어를 반환합니다.
//
// 키는 X-App-Key 헤더에서 먼저 찾고, 없으면 app_key 쿼리 파라미터를 사용합니다.
// appKey가 비어 있으면 인증 없이 모든 요청을 통과시킵니다.
func RequireAppKey(appKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if appKey == "" {
			return next
		}

		return func(c echo.Context) error {
			key := c.Request().Header.Get(constants.HeaderAppKey)
			if key == "" {
				key = c.QueryParam(constants.QueryParamAppKey)
			}

			if key == "" {
				return httputil.NewUnauthorizedError(constants.ErrMsgAppKeyRequired)
			}

			if subtle.ConstantTimeCompare([]byte(key), []byte(appKey)) != 1 {
				applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
					"method":    c.Request().Method,
					"path":      c.Path(),
					"remote_ip": c.RealIP(),
				}).Warn("인증 실패: APP_KEY가 일치하지 않습니다")

				return httputil.NewUnauthorizedError(constants.ErrMsgAppKeyInvalid)
			}

			return next(c)
		}
	}
}

package middleware

import (
	"mime"
	"strings"

	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	"github.com/darkkaiser/share-worker/internal/service/api/httputil"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// ValidateContentType 본문이 있는 요청의 Content-Type을 검증하는 미들웨어를 반환합니다.
//
// 미디어 타입만 비교하며 charset 같은 파라미터와 대소문자는 무시합니다.
// 본문이 없는 요청(Content-Length가 0)은 검증하지 않고 통과시킵니다.
//
// 매개변수:
//   - expectedContentType: 허용할 미디어 타입 (예: echo.MIMEApplicationJSON)
//
// 반환값:
//   - 415 Unsupported Media Type: Content-Type이 없거나 일치하지 않는 경우
func ValidateContentType(expectedContentType string) echo.MiddlewareFunc {
	expected := strings.ToLower(expectedContentType)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.ContentLength == 0 {
				return next(c)
			}

			contentType := req.Header.Get(echo.HeaderContentType)
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != expected {
				applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
					"method":     req.Method,
					"path":       req.URL.Path,
					"expected":   expectedContentType,
					"actual":     contentType,
					"remote_ip":  c.RealIP(),
				}).Warn("지원하지 않는 Content-Type 요청")

				return httputil.NewUnsupportedMediaTypeError(constants.ErrMsgUnsupportedMediaType)
			}

			return next(c)
		}
	}
}

package middleware

import (
	"fmt"
	"runtime"

	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// stackBufferSize panic 발생 시 스택 트레이스를 저장할 버퍼 크기 (4KB)
const stackBufferSize = 4 << 10

// PanicRecovery 핸들러에서 발생한 panic을 복구하는 미들웨어를 반환합니다.
//
// 복구한 값이 error가 아니면 apperrors.Internal 에러로 감싼 뒤, 스택 트레이스(최대 4KB)와
// 요청 ID(있는 경우)를 함께 Error 레벨로 기록하고 c.Error로 전역 에러 핸들러에 넘깁니다.
// 따라서 클라이언트는 연결이 끊기지 않고 500 응답을 받습니다.
//
// 체인의 가장 앞에 등록해야 뒤따르는 모든 미들웨어의 panic이 복구됩니다.
// 요청 ID는 안쪽의 RequestID 미들웨어가 응답 헤더에 기록한 값을 읽습니다.
//
// 반환값:
//   - echo.MiddlewareFunc: panic 복구 미들웨어
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = apperrors.New(apperrors.Internal, fmt.Sprintf("%v", r))
					}

					stack := make([]byte, stackBufferSize)
					length := runtime.Stack(stack, false)

					fields := applog.Fields{
						"error": err,
						"stack": string(stack[:length]),
					}
					if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
						fields["request_id"] = requestID
					}

					applog.WithComponentAndFields(constants.ComponentMiddleware, fields).Error("PANIC RECOVERED")

					c.Error(err)
				}
			}()

			return next(c)
		}
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darkkaiser/share-worker/internal/service/api/constants"
	"github.com/darkkaiser/share-worker/internal/service/api/httputil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestValidateContentType(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	e.POST("/submit", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, ValidateContentType(echo.MIMEApplicationJSON))

	tests := []struct {
		name        string
		contentType string
		hasBody     bool
		wantCode    int
	}{
		{name: "JSON", contentType: echo.MIMEApplicationJSON, hasBody: true, wantCode: http.StatusOK},
		{name: "charset 포함", contentType: "application/json; charset=utf-8", hasBody: true, wantCode: http.StatusOK},
		{name: "대소문자 혼용", contentType: "Application/JSON", hasBody: true, wantCode: http.StatusOK},
		{name: "본문 없음", contentType: "", hasBody: false, wantCode: http.StatusOK},
		{name: "Content-Type 누락", contentType: "", hasBody: true, wantCode: http.StatusUnsupportedMediaType},
		{name: "폼 데이터", contentType: echo.MIMEApplicationForm, hasBody: true, wantCode: http.StatusUnsupportedMediaType},
		{name: "접두사만 일치", contentType: "application/jsonp", hasBody: true, wantCode: http.StatusUnsupportedMediaType},
		{name: "파싱 불가", contentType: "application/json; =", hasBody: true, wantCode: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.hasBody {
				req = httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"paths":["/a"]}`))
			} else {
				req = httptest.NewRequest(http.MethodPost, "/submit", nil)
			}
			if tt.contentType != "" {
				req.Header.Set(echo.HeaderContentType, tt.contentType)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnsupportedMediaType {
				assert.Contains(t, rec.Body.String(), constants.ErrMsgUnsupportedMediaType)
			}
		})
	}
}

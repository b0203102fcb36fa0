package config

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	"github.com/darkkaiser/share-worker/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

var (
	// 텔레그램 봇 토큰 형식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)
)

// newValidator 커스텀 유효성 검사 함수가 등록된 Validator 인스턴스를 생성합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 메시지에 Go 필드명 대신 JSON 키 이름을 사용합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "telegram_bot_token", validateTelegramBotToken)
	mustRegister(v, "cron_spec", validateCronSpec)
	mustRegister(v, "cors_origin", validateCORSOrigin)

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: '%s' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", tag, err))
	}
}

func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

func validateCronSpec(fl validator.FieldLevel) bool {
	return cronx.Validate(fl.Field().String()) == nil
}

// validateCORSOrigin '*' 또는 경로가 없는 'http(s)://host[:port]' 형식만 허용합니다.
func validateCORSOrigin(fl validator.FieldLevel) bool {
	origin := strings.TrimSpace(fl.Field().String())
	if origin == "*" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Hostname() != "" && u.Path == "" && u.RawQuery == "" && u.Fragment == "" && u.User == nil
}

// validate 설정 전체의 유효성을 검사합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "애플리케이션"); err != nil {
		return err
	}

	if err := checkUniqueField(v, c.Schedules, "ID", "스케줄"); err != nil {
		return err
	}

	return nil
}

// checkStruct 구조체의 유효성을 검사하고, 첫 번째 위반 항목을 사용자 친화적인 에러로 반환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if apperrors.As(err, &validationErrors) && len(validationErrors) > 0 {
		firstErr := validationErrors[0]

		// 'AppConfig.' 접두사를 제거한 JSON 경로 (예: notification.telegram.bot_token)
		path := firstErr.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}

		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, path, firstErr.Tag()))
	}

	return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
}

// checkUniqueField 슬라이스 내의 특정 필드 값이 유일한지 검사합니다.
func checkUniqueField(v *validator.Validate, data any, fieldName, contextName string) error {
	err := v.Var(data, "unique="+fieldName)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if apperrors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			if fieldErr.Tag() == "unique" {
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 %s ID가 존재합니다", contextName))
			}
		}
	}

	return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유일성 검증에 실패했습니다", contextName))
}

package errors

import "strconv"

// ErrorType 에러의 종류를 나타내는 타입입니다.
type ErrorType int

const (
	// Unknown 분류되지 않은 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류 (버그, 복구된 패닉 등)
	Internal

	// System 시스템 또는 인프라 오류 (디스크, 데이터베이스, 네트워크 등)
	System

	// Unauthorized 인증 실패
	Unauthorized

	// InvalidInput 잘못된 입력값
	InvalidInput

	// Conflict 상태 충돌 (동일 키의 작업이 이미 실행 중 등)
	Conflict

	// NotFound 리소스를 찾을 수 없음
	NotFound

	// ExecutionFailed 작업 본문 수행 실패
	ExecutionFailed

	// Canceled 협조적 취소로 인한 중단
	Canceled

	// Timeout 작업 시간 초과
	Timeout

	// Unavailable 서비스 사용 불가 (종료됨 등)
	Unavailable
)

var errorTypeNames = [...]string{
	Unknown:         "Unknown",
	Internal:        "Internal",
	System:          "System",
	Unauthorized:    "Unauthorized",
	InvalidInput:    "InvalidInput",
	Conflict:        "Conflict",
	NotFound:        "NotFound",
	ExecutionFailed: "ExecutionFailed",
	Canceled:        "Canceled",
	Timeout:         "Timeout",
	Unavailable:     "Unavailable",
}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}

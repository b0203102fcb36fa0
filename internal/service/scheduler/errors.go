package scheduler

import (
	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
)

var (
	// ErrRegistryNotInitialized 작업 레지스트리 없이 스케줄러를 시작하려 할 때 반환됩니다.
	ErrRegistryNotInitialized = apperrors.New(apperrors.Internal, "작업 레지스트리가 초기화되지 않았습니다")
)

// NewErrInvalidCronSpec Cron 표현식이 올바르지 않아 스케줄 등록에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrInvalidCronSpec(scheduleID, timeSpec string, cause error) error {
	return apperrors.Wrapf(cause, apperrors.InvalidInput, "스케줄 등록 실패: 잘못된 Cron 표현식입니다 (ScheduleID=%s, TimeSpec='%s')", scheduleID, timeSpec)
}

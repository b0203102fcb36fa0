package telegram

import (
	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
)

var (
	// ErrCancelerNotInitialized 취소 요청을 전달할 대상이 주입되지 않은 상태에서 Start()가 호출되었을 때 반환됩니다.
	ErrCancelerNotInitialized = apperrors.New(apperrors.Internal, "취소 요청을 전달할 Canceler가 초기화되지 않았습니다")
)

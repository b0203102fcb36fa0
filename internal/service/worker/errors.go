package worker

import (
	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
)

var (
	// ErrInterrupted 작업이 협조적 취소 요청을 관찰하고 중단되었음을 나타냅니다.
	// 작업 본문이 이 에러(또는 이 에러를 감싼 에러)를 반환하면 정상 종료로 취급됩니다.
	ErrInterrupted = apperrors.New(apperrors.Canceled, "작업이 중단되었습니다")

	// ErrServiceStopped 서비스가 종료된 뒤 Submit()이 호출되었을 때 반환됩니다.
	ErrServiceStopped = apperrors.New(apperrors.Unavailable, "작업 서비스가 종료되어 새 작업을 받을 수 없습니다")

	// ErrServiceNotRunning Start() 이전에 Submit()이 호출되었을 때 반환됩니다.
	ErrServiceNotRunning = apperrors.New(apperrors.Unavailable, "작업 서비스가 아직 시작되지 않았습니다")

	// ErrPublisherNotInitialized 서비스 생성 시 알림 발행자가 주어지지 않았을 때 반환됩니다.
	ErrPublisherNotInitialized = apperrors.New(apperrors.Internal, "알림 발행자(Publisher)가 초기화되지 않았습니다")

	// ErrInvalidTask Submit()에 nil 작업이나 본문이 없는 작업이 전달되었을 때 반환됩니다.
	ErrInvalidTask = apperrors.New(apperrors.InvalidInput, "작업 또는 작업 본문이 비어 있습니다")
)

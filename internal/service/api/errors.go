package api

import (
	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
)

var (
	// ErrRegistryNotInitialized 작업 레지스트리 없이 서비스를 시작하려 할 때 반환됩니다.
	ErrRegistryNotInitialized = apperrors.New(apperrors.Internal, "작업 레지스트리가 초기화되지 않았습니다")
)

package service

import (
	"context"
	"sync"
)

// Service 애플리케이션 생명주기 동안 실행되는 서비스의 공통 인터페이스입니다.
//
// Start는 serviceStopWG.Add(1)이 호출된 상태에서 불리며, 서비스는 serviceStopCtx가 취소되어
// 정리를 마치면 serviceStopWG.Done()을 호출해야 합니다. Start가 에러를 반환하는 경우에도 Done()을 호출합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}

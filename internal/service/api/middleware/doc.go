// Package middleware 제어 API의 Echo 미들웨어를 제공합니다.
//
//   - PanicRecovery: 핸들러 panic 복구
//   - HTTPLogger: 민감 정보를 마스킹한 요청 로깅
//   - RateLimiting: IP별 요청 제한
//   - RequireAppKey: APP_KEY 인증
//   - ValidateContentType: 요청 본문의 Content-Type 검증
package middleware

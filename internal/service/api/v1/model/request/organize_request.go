// Package request v1 API의 요청 모델을 정의합니다.
package request

// OrganizeRequest 파일 정리 작업 제출 요청
type OrganizeRequest struct {
	Paths []string `json:"paths" validate:"min=1,max=1000,dive,required" korean:"경로 목록"`

	// Discriminator 같은 요청의 중복 실행을 막기 위한 식별자 (선택)
	Discriminator string `json:"discriminator" validate:"max=64" korean:"작업 식별자"`

	Title string `json:"title" validate:"max=100" korean:"제목"`
}

// Package mark 알림 메시지에 사용하는 이모지 상수를 정의합니다.
package mark

// Mark 이모지 상수를 위한 타입입니다.
type Mark string

const (
	// 작업 진행 중
	Running Mark = "⏳"

	// 서비스 실행 중 (포그라운드 알림)
	Service Mark = "⚙️"

	// 취소
	Cancel Mark = "❌"

	// 후속 동작 링크
	Link Mark = "🔗"

	// 완료/취소 처리됨
	Done Mark = "✅"
)

// Values 정의된 모든 마크를 반환합니다.
func Values() []Mark {
	return []Mark{Running, Service, Cancel, Link, Done}
}

// WithSpace 마크 앞에 구분용 공백을 붙여 반환합니다.
func (m Mark) WithSpace() string {
	if m == "" {
		return ""
	}
	return " " + string(m)
}

// Prefix 마크 뒤에 공백을 붙여 문장 앞에 둘 수 있는 형태로 반환합니다.
func (m Mark) Prefix() string {
	if m == "" {
		return ""
	}
	return string(m) + " "
}

func (m Mark) String() string {
	return string(m)
}

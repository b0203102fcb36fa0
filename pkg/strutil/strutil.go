// Package strutil 로그 및 알림 문구에 쓰이는 문자열 유틸리티를 제공합니다.
package strutil

import "unicode/utf8"

// MaskSensitiveData 토큰, 키 등 민감한 정보를 로그에 남길 수 있도록 마스킹합니다.
//   - 3자 이하: 전체 마스킹
//   - 12자 이하: 앞 4자만 표시
//   - 그 외: 앞 4자 + 뒤 4자 표시
func MaskSensitiveData(data string) string {
	if data == "" {
		return ""
	}
	if len(data) <= 3 {
		return "***"
	}
	if len(data) <= 12 {
		return data[:4] + "***"
	}
	return data[:4] + "***" + data[len(data)-4:]
}

// Truncate 문자열을 최대 maxRunes 글자로 자르고, 잘린 경우 말줄임표를 붙입니다.
// 멀티바이트 문자가 중간에서 잘리지 않도록 rune 단위로 계산합니다.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)
	if maxRunes == 1 {
		return string(runes[:1])
	}
	return string(runes[:maxRunes-1]) + "…"
}

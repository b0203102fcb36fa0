package log

import "github.com/sirupsen/logrus"

// silentFormatter 아무 것도 출력하지 않는 포맷터입니다.
// logrus는 io.Discard로 출력하더라도 포맷팅을 수행하므로 기본 포맷터를 이것으로 교체합니다.
type silentFormatter struct{}

func (f *silentFormatter) Format(_ *logrus.Entry) ([]byte, error) {
	return nil, nil
}

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles root 아래에 files(슬래시 구분 상대 경로 → 내용)를 만듭니다. 중간 디렉터리는 자동으로 생성됩니다.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("디렉터리 생성 실패(%s): %v", p, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("파일 생성 실패(%s): %v", p, err)
		}
	}
}

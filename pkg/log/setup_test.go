package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetForTest Setup의 sync.Once와 logrus 전역 상태를 초기화하여 테스트 간 간섭을 막습니다.
func resetForTest(t *testing.T) {
	t.Helper()

	reset := func() {
		setupOnce = sync.Once{}
		globalCloser = nil
		globalSetupErr = nil

		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetReportCaller(false)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	reset()
	t.Cleanup(reset)
}

func TestSetup_CreatesLogFiles(t *testing.T) {
	resetForTest(t)

	dir := t.TempDir()
	opts := NewProductionOptions("share-worker-test")
	opts.Dir = dir
	opts.Level = TraceLevel

	c, err := Setup(opts)
	require.NoError(t, err)

	WithComponent("test").Info("info-message")
	WithComponentAndFields("test", Fields{"key": "k1"}).Error("error-message")
	WithComponent("test").Debug("debug-message")

	require.NoError(t, c.Close())

	mainLog, err := os.ReadFile(filepath.Join(dir, "share-worker-test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "info-message")
	assert.Contains(t, string(mainLog), "error-message")
	assert.NotContains(t, string(mainLog), "debug-message")
	assert.Contains(t, string(mainLog), "component=test")

	criticalLog, err := os.ReadFile(filepath.Join(dir, "share-worker-test.critical.log"))
	require.NoError(t, err)
	assert.Contains(t, string(criticalLog), "error-message")
	assert.Contains(t, string(criticalLog), "key=k1")

	verboseLog, err := os.ReadFile(filepath.Join(dir, "share-worker-test.verbose.log"))
	require.NoError(t, err)
	assert.Contains(t, string(verboseLog), "debug-message")
}

func TestSetup_RunsOnce(t *testing.T) {
	resetForTest(t)

	opts := NewDevelopmentOptions("once")
	opts.Dir = t.TempDir()
	opts.EnableConsoleLog = false

	c1, err1 := Setup(opts)
	c2, err2 := Setup(Options{})

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, c1, c2)
	require.NoError(t, c1.Close())
}

func TestSetup_InvalidOptions(t *testing.T) {
	resetForTest(t)

	_, err := Setup(Options{})
	assert.ErrorContains(t, err, "Name")
}

func TestOptions_Validate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "정상", opts: Options{Name: "app"}},
		{name: "이름 누락", opts: Options{}, wantErr: "Name"},
		{name: "디렉토리가 파일", opts: Options{Name: "app", Dir: file}, wantErr: "이미 파일로 존재"},
		{name: "음수 MaxAge", opts: Options{Name: "app", MaxAge: -1}, wantErr: "MaxAge"},
		{name: "음수 MaxSizeMB", opts: Options{Name: "app", MaxSizeMB: -1}, wantErr: "MaxSizeMB"},
		{name: "음수 MaxBackups", opts: Options{Name: "app", MaxBackups: -1}, wantErr: "MaxBackups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSetDebugMode(t *testing.T) {
	resetForTest(t)

	SetDebugMode(true)
	assert.Equal(t, TraceLevel, logrus.GetLevel())

	SetDebugMode(false)
	assert.Equal(t, InfoLevel, logrus.GetLevel())
}

func TestWithComponentAndFields_DoesNotMutateInput(t *testing.T) {
	fields := Fields{"a": 1}
	entry := WithComponentAndFields("worker", fields)

	assert.Equal(t, "worker", entry.Data["component"])
	assert.Equal(t, 1, entry.Data["a"])
	assert.NotContains(t, fields, "component")
}

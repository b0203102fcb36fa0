package log

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeBuffer 동시 쓰기가 가능한 테스트용 버퍼입니다.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failWriter struct{}

func (failWriter) Write(_ []byte) (int, error) {
	return 0, errors.New("disk full")
}

func newTestHook() (*hook, *safeBuffer, *safeBuffer, *safeBuffer, *safeBuffer) {
	mainBuf, criticalBuf, verboseBuf, consoleBuf := &safeBuffer{}, &safeBuffer{}, &safeBuffer{}, &safeBuffer{}
	h := &hook{
		mainWriter:     mainBuf,
		criticalWriter: criticalBuf,
		verboseWriter:  verboseBuf,
		consoleWriter:  consoleBuf,
		formatter:      &logrus.TextFormatter{DisableTimestamp: true},
	}
	return h, mainBuf, criticalBuf, verboseBuf, consoleBuf
}

func newEntry(level Level, msg string) *Entry {
	e := logrus.NewEntry(logrus.New())
	e.Level = level
	e.Message = msg
	return e
}

func TestHook_Fire_Routing(t *testing.T) {
	tests := []struct {
		name         string
		level        Level
		wantMain     bool
		wantCritical bool
		wantVerbose  bool
	}{
		{name: "Error", level: ErrorLevel, wantMain: true, wantCritical: true},
		{name: "Warn", level: WarnLevel, wantMain: true},
		{name: "Info", level: InfoLevel, wantMain: true},
		{name: "Debug", level: DebugLevel, wantVerbose: true},
		{name: "Trace", level: TraceLevel, wantVerbose: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mainBuf, criticalBuf, verboseBuf, consoleBuf := newTestHook()

			require.NoError(t, h.Fire(newEntry(tt.level, "routing-test")))

			assert.Equal(t, tt.wantMain, mainBuf.String() != "", "main")
			assert.Equal(t, tt.wantCritical, criticalBuf.String() != "", "critical")
			assert.Equal(t, tt.wantVerbose, verboseBuf.String() != "", "verbose")
			assert.Contains(t, consoleBuf.String(), "routing-test", "콘솔은 모든 레벨을 기록한다")
		})
	}
}

func TestHook_Fire_WriteFailure(t *testing.T) {
	h, mainBuf, _, _, _ := newTestHook()
	h.criticalWriter = failWriter{}

	err := h.Fire(newEntry(ErrorLevel, "critical-fail"))

	assert.Error(t, err)
	assert.Contains(t, mainBuf.String(), "critical-fail", "Critical 실패와 무관하게 Main에는 기록된다")
}

func TestHook_Close(t *testing.T) {
	h, mainBuf, _, _, _ := newTestHook()

	require.NoError(t, h.Close())
	require.NoError(t, h.Fire(newEntry(InfoLevel, "after-close")))

	assert.Empty(t, mainBuf.String())
}

func TestHook_ConcurrentFireAndClose(t *testing.T) {
	h, _, _, _, _ := newTestHook()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Fire(newEntry(InfoLevel, "concurrent"))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = h.Close()
	}()
	wg.Wait()

	assert.True(t, h.closed)
}

package telegram

import (
	"fmt"
	"sync"
	"testing"

	"github.com/darkkaiser/share-worker/internal/service/worker"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"
)

// =============================================================================
// Telegram Bot Mock
// =============================================================================

var _ client = (*MockTelegramBot)(nil)

// MockTelegramBot client 인터페이스의 Mock 구현체입니다.
type MockTelegramBot struct {
	mock.Mock
}

func NewMockTelegramBot(t *testing.T) *MockTelegramBot {
	m := &MockTelegramBot{}
	m.Test(t)
	return m
}

func (m *MockTelegramBot) GetSelf() tgbotapi.User {
	args := m.Called()

	if args.Get(0) != nil {
		return args.Get(0).(tgbotapi.User)
	}
	return tgbotapi.User{}
}

func (m *MockTelegramBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)

	switch ch := args.Get(0).(type) {
	case nil:
		return nil
	case tgbotapi.UpdatesChannel:
		return ch
	case chan tgbotapi.Update:
		return ch
	default:
		panic(fmt.Sprintf("MockTelegramBot.GetUpdatesChan: unexpected return type: %T", ch))
	}
}

func (m *MockTelegramBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)

	var msg tgbotapi.Message
	if args.Get(0) != nil {
		msg = args.Get(0).(tgbotapi.Message)
	}
	return msg, args.Error(1)
}

func (m *MockTelegramBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)

	var resp *tgbotapi.APIResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*tgbotapi.APIResponse)
	}
	return resp, args.Error(1)
}

func (m *MockTelegramBot) StopReceivingUpdates() {
	m.Called()
}

// =============================================================================
// Canceler Fake
// =============================================================================

type fakeCanceler struct {
	mu        sync.Mutex
	live      map[worker.TaskKey]bool
	canceled  []worker.TaskKey
	cancelAll int
}

func newFakeCanceler(liveKeys ...worker.TaskKey) *fakeCanceler {
	c := &fakeCanceler{live: make(map[worker.TaskKey]bool)}
	for _, k := range liveKeys {
		c.live[k] = true
	}
	return c
}

func (c *fakeCanceler) Cancel(key worker.TaskKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.canceled = append(c.canceled, key)
	if c.live[key] {
		delete(c.live, key)
		return true
	}
	return false
}

func (c *fakeCanceler) CancelAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAll++
	n := len(c.live)
	c.live = make(map[worker.TaskKey]bool)
	return n
}

func (c *fakeCanceler) Tasks() []worker.Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]worker.Info, 0, len(c.live))
	for k := range c.live {
		infos = append(infos, worker.Info{Key: k, Title: "작업 " + k.String()})
	}
	return infos
}

func (c *fakeCanceler) canceledKeys() []worker.TaskKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]worker.TaskKey(nil), c.canceled...)
}

// =============================================================================
// Helpers
// =============================================================================

const testChatID int64 = 12345

func newTestBackend(t *testing.T) (*Backend, *MockTelegramBot) {
	t.Helper()

	m := NewMockTelegramBot(t)
	b := newBackend(m, testChatID)
	b.limiter = rate.NewLimiter(rate.Inf, 0)

	return b, m
}

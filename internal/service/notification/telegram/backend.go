package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/share-worker/internal/config"
	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	"github.com/darkkaiser/share-worker/internal/service/notification"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/darkkaiser/share-worker/pkg/strutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// component 텔레그램 알림 백엔드의 로깅용 컴포넌트 이름
const component = "notification.telegram"

const (
	// 텔레그램은 같은 채팅방에 초당 1건 정도의 메시지를 권장합니다.
	defaultRateLimit = 1
	defaultRateBurst = 3
)

// Canceler 사용자가 텔레그램에서 보낸 취소 요청을 처리할 대상입니다. worker.Service가 구현합니다.
type Canceler interface {
	Cancel(key worker.TaskKey) bool
	CancelAll() int
	Tasks() []worker.Info
}

// Backend 작업 알림을 텔레그램 메시지로 표시하는 notification.Backend 구현체입니다.
//
// 알림이 처음 표시될 때 메시지를 보내고, 이후 갱신은 같은 메시지를 수정하며, 알림이 제거되면 메시지를 삭제합니다.
// 메시지의 취소 버튼이 눌리면 callback_data(작업 키)가 Canceler로 전달됩니다.
type Backend struct {
	chatID int64

	client  client
	limiter *rate.Limiter

	canceler Canceler

	mu sync.Mutex
	// messageIDs 알림 ID별로 보낸 메시지의 ID
	messageIDs map[string]int

	runningMu sync.Mutex
	running   bool
}

var _ notification.Backend = (*Backend)(nil)

// NewBackend 텔레그램 봇 API에 연결하여 알림 백엔드를 생성합니다.
func NewBackend(telegramConfig config.TelegramConfig) (*Backend, error) {
	botAPI, err := tgbotapi.NewBotAPI(telegramConfig.BotToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "텔레그램 봇 API 초기화에 실패했습니다")
	}

	b := newBackend(&tgClient{BotAPI: botAPI}, telegramConfig.ChatID)

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": botAPI.Self.UserName,
		"bot_token":    strutil.MaskSensitiveData(telegramConfig.BotToken),
		"chat_id":      telegramConfig.ChatID,
	}).Info("텔레그램 봇 API 연결 완료")

	return b, nil
}

func newBackend(c client, chatID int64) *Backend {
	return &Backend{
		chatID: chatID,

		client:  c,
		limiter: rate.NewLimiter(rate.Every(time.Second/defaultRateLimit), defaultRateBurst),

		messageIDs: make(map[string]int),
	}
}

// SetCanceler 취소 요청을 전달할 대상을 주입합니다. 작업 서비스가 알림 발행자에 의존하므로 생성 이후에 주입합니다.
func (b *Backend) SetCanceler(c Canceler) {
	b.canceler = c
}

// Show 알림을 메시지로 보내거나, 이미 보낸 메시지가 있으면 내용을 수정합니다.
func (b *Backend) Show(ctx context.Context, n notification.Notification) error {
	text := renderMessage(n)
	markup := buildKeyboard(n)

	b.mu.Lock()
	messageID, ok := b.messageIDs[n.ID]
	b.mu.Unlock()

	if ok {
		err := b.edit(ctx, messageID, text, markup)
		if err == nil {
			return nil
		}
		if !isMessageGone(err) {
			return err
		}

		// 사용자가 메시지를 직접 지운 경우 새로 보냅니다.
		b.mu.Lock()
		delete(b.messageIDs, n.ID)
		b.mu.Unlock()
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Canceled, "텔레그램 메시지 전송 대기 중 취소되었습니다")
	}

	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableNotification = !n.Foreground
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := b.client.Send(msg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "텔레그램 메시지 전송에 실패했습니다")
	}

	b.mu.Lock()
	b.messageIDs[n.ID] = sent.MessageID
	b.mu.Unlock()

	return nil
}

func (b *Backend) edit(ctx context.Context, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Canceled, "텔레그램 메시지 수정 대기 중 취소되었습니다")
	}

	edit := tgbotapi.NewEditMessageText(b.chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup

	if _, err := b.client.Send(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		if isMessageGone(err) {
			return err
		}
		return apperrors.Wrap(err, apperrors.System, "텔레그램 메시지 수정에 실패했습니다")
	}

	return nil
}

// Cancel 알림 메시지를 삭제합니다. 이 백엔드가 보낸 적 없는 ID라면 아무 일도 하지 않습니다.
func (b *Backend) Cancel(ctx context.Context, id string) error {
	b.mu.Lock()
	messageID, ok := b.messageIDs[id]
	delete(b.messageIDs, id)
	b.mu.Unlock()

	if !ok {
		return nil
	}

	return b.deleteMessage(ctx, messageID)
}

func (b *Backend) deleteMessage(ctx context.Context, messageID int) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Canceled, "텔레그램 메시지 삭제 대기 중 취소되었습니다")
	}

	if _, err := b.client.Request(tgbotapi.NewDeleteMessage(b.chatID, messageID)); err != nil {
		if isMessageGone(err) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.System, "텔레그램 메시지 삭제에 실패했습니다")
	}

	return nil
}

// trackedMessage 알림 ID로 보낸 메시지의 ID를 반환합니다.
func (b *Backend) trackedMessage(id string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	messageID, ok := b.messageIDs[id]
	return messageID, ok
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

func isMessageGone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "message to edit not found") || strings.Contains(msg, "message to delete not found")
}

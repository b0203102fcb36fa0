package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/darkkaiser/share-worker/internal/pkg/mark"
	"github.com/darkkaiser/share-worker/internal/service/worker"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// 봇 명령어
	commandCancelAll = "cancel_all"
	commandTasks     = "tasks"
	commandHelp      = "help"

	// 롱 폴링 대기 시간(초)
	updateTimeout = 60
)

// Start 텔레그램 업데이트 수신을 시작합니다. 취소 버튼과 봇 명령어를 Canceler에 전달합니다.
// serviceStopCtx가 취소되면 수신을 멈추고 serviceStopWG.Done()을 호출합니다.
func (b *Backend) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	b.runningMu.Lock()
	defer b.runningMu.Unlock()

	if b.canceler == nil {
		defer serviceStopWG.Done()
		return ErrCancelerNotInitialized
	}

	if b.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("텔레그램 수신기가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	b.running = true

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	updateC := b.client.GetUpdatesChan(u)

	go b.receive(serviceStopCtx, serviceStopWG, updateC)

	applog.WithComponent(component).Info("서비스 시작 완료: 텔레그램 수신기가 정상적으로 초기화되었습니다")

	return nil
}

func (b *Backend) receive(ctx context.Context, serviceStopWG *sync.WaitGroup, updateC tgbotapi.UpdatesChannel) {
	defer serviceStopWG.Done()
	defer b.client.StopReceivingUpdates()

	for {
		select {
		case update, ok := <-updateC:
			if !ok {
				applog.WithComponent(component).Warn("텔레그램 업데이트 채널이 닫혔습니다")
				return
			}
			b.handleUpdate(ctx, update)

		case <-ctx.Done():
			applog.WithComponent(component).Info("텔레그램 수신기 종료")
			return
		}
	}
}

func (b *Backend) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"update_id": update.UpdateID,
				"panic":     r,
			}).Error("텔레그램 업데이트 처리 중 패닉이 발생하여 복구하였습니다")
		}
	}()

	if q := update.CallbackQuery; q != nil {
		b.handleCallback(ctx, q)
		return
	}

	if m := update.Message; m != nil && m.Chat != nil && m.Chat.ID == b.chatID && m.IsCommand() {
		b.handleCommand(m)
	}
}

// handleCallback 취소 버튼 입력을 처리합니다.
func (b *Backend) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil || q.Message.Chat == nil || q.Message.Chat.ID != b.chatID {
		applog.WithComponentAndFields(component, applog.Fields{
			"callback_id": q.ID,
		}).Warn("등록되지 않은 채팅방의 취소 요청을 무시합니다")
		return
	}

	key := worker.TaskKey(q.Data)
	canceled := b.canceler.Cancel(key)

	answer := mark.Done.Prefix() + "작업을 취소했습니다"
	if !canceled {
		answer = "이미 종료된 작업입니다"

		// 이전 실행에서 남은 메시지는 추적되지 않으므로 직접 삭제합니다.
		if messageID, ok := b.trackedMessage(q.Data); !ok || messageID != q.Message.MessageID {
			if err := b.deleteMessage(ctx, q.Message.MessageID); err != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"message_id": q.Message.MessageID,
					"error":      err,
				}).Warn("남아 있는 작업 알림 메시지 삭제 실패")
			}
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"task_key": key,
		"canceled": canceled,
	}).Info("텔레그램 취소 요청 처리")

	if _, err := b.client.Request(tgbotapi.NewCallback(q.ID, answer)); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"callback_id": q.ID,
			"error":       err,
		}).Warn("텔레그램 콜백 응답 실패")
	}
}

func (b *Backend) handleCommand(m *tgbotapi.Message) {
	var reply string

	switch m.Command() {
	case commandCancelAll:
		n := b.canceler.CancelAll()
		reply = fmt.Sprintf("%s%d개의 작업을 취소했습니다", mark.Done.Prefix(), n)

	case commandTasks:
		reply = formatTasks(b.canceler.Tasks())

	default:
		reply = fmt.Sprintf("/%s - 실행 중인 작업 목록\n/%s - 모든 작업 취소\n/%s - 도움말", commandTasks, commandCancelAll, commandHelp)
	}

	if _, err := b.client.Send(tgbotapi.NewMessage(b.chatID, reply)); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"command": m.Command(),
			"error":   err,
		}).Warn("텔레그램 명령어 응답 실패")
	}
}

func formatTasks(tasks []worker.Info) string {
	if len(tasks) == 0 {
		return "실행 중인 작업이 없습니다"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "실행 중인 작업 %d개", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&sb, "\n- %s", t.Title)
		if t.StatusText != "" {
			fmt.Fprintf(&sb, ": %s", t.StatusText)
		}
	}

	return sb.String()
}

package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/darkkaiser/share-worker/internal/pkg/mark"
	"github.com/darkkaiser/share-worker/internal/service/notification"
	"github.com/darkkaiser/share-worker/pkg/strutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// messageMaxLength 텔레그램 메시지 최대 길이(4096자)에서 HTML 태그 여유분을 뺀 값입니다.
const messageMaxLength = 3900

var (
	cancelButtonText  = mark.Cancel.Prefix() + "취소"
	contentButtonText = mark.Link.Prefix() + "열기"
)

// renderMessage 알림을 HTML 형식의 메시지 본문으로 변환합니다.
func renderMessage(n notification.Notification) string {
	var sb strings.Builder

	if n.Foreground {
		sb.WriteString(mark.Service.Prefix())
	} else {
		sb.WriteString(mark.Running.Prefix())
	}
	sb.WriteString("<b>")
	sb.WriteString(html.EscapeString(n.Title))
	sb.WriteString("</b>")

	if n.Text != "" {
		sb.WriteString("\n")
		sb.WriteString(html.EscapeString(n.Text))
	}

	if n.Progress.Total > 0 {
		fmt.Fprintf(&sb, "\n\n진행: %d/%d", n.Progress.Current, n.Progress.Total)
	}

	return strutil.Truncate(sb.String(), messageMaxLength)
}

// buildKeyboard 취소 버튼과(있다면) 후속 동작 버튼을 만듭니다. 버튼이 없으면 nil을 반환합니다.
//
// 취소 버튼의 callback_data는 알림의 CancelAction(작업 키)이며, 사용자가 누르면 그대로 되돌아옵니다.
func buildKeyboard(n notification.Notification) *tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton

	if n.CancelAction != "" {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(cancelButtonText, n.CancelAction))
	}
	if strings.HasPrefix(n.ContentAction, "http://") || strings.HasPrefix(n.ContentAction, "https://") {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(contentButtonText, n.ContentAction))
	}

	if len(buttons) == 0 {
		return nil
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	return &markup
}

// Package organize 공유할 파일 목록을 정리하여 전송 그룹으로 저장하는 작업을 제공합니다.
package organize

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/darkkaiser/share-worker/internal/service/worker"
	"github.com/darkkaiser/share-worker/internal/store"
	applog "github.com/darkkaiser/share-worker/pkg/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// component 파일 정리 작업의 로깅용 컴포넌트 이름
const component = "worker.organize"

const (
	// KeyPrefix 호출자가 식별자를 지정하지 않았을 때 작업 키의 접두사입니다.
	KeyPrefix = "organize:"

	defaultTitle = "공유 파일 정리"

	// rollbackTimeout 중단 시 저장된 전송 목록을 되돌리는 데 허용하는 최대 시간입니다.
	rollbackTimeout = 10 * time.Second
)

// Repository 정리된 전송 목록을 저장하는 저장소입니다. store.Store가 구현합니다.
type Repository interface {
	Insert(ctx context.Context, records []store.Transfer, progress func(total, current int) bool, parent store.Group) error
	InsertGroup(ctx context.Context, g store.Group) error
	Remove(ctx context.Context, q store.Query) (int64, error)
	Broadcast()
}

var _ Repository = (*store.Store)(nil)

// Request 파일 정리 작업 요청입니다.
type Request struct {
	Paths []string

	// Discriminator 비어 있으면 "organize:<그룹 ID>"를 사용합니다.
	Discriminator string

	Title string
}

type body struct {
	repo    Repository
	paths   []string
	groupID string
}

// NewTask 파일 정리 작업을 생성하고, 작업이 저장할 전송 그룹의 ID를 함께 반환합니다.
func NewTask(repo Repository, req Request) (*worker.Task, string) {
	t, b := newTask(repo, req)
	return t, b.groupID
}

func newTask(repo Repository, req Request) (*worker.Task, *body) {
	b := &body{
		repo:    repo,
		paths:   append([]string(nil), req.Paths...),
		groupID: uuid.NewString(),
	}

	key := req.Discriminator
	if key == "" {
		key = KeyPrefix + b.groupID
	}

	title := req.Title
	if title == "" {
		title = defaultTitle
	}

	t := worker.NewTask(worker.Config{
		Discriminator: key,
		Title:         title,
		Icon:          "folder_shared",
	}, b)

	return t, b
}

func (b *body) Run(t *worker.Task) error {
	total := len(b.paths)

	t.SetTaskPosition(0, total)
	t.PublishStatusText("파일 정리 중")

	group := store.Group{ID: b.groupID}
	var records []store.Transfer

	for i, path := range b.paths {
		if t.Interrupted() {
			return worker.ErrInterrupted
		}

		t.PublishStatusText(fmt.Sprintf("파일 정리 중 (%d/%d)", i, total))
		t.UpdateTaskPosition(1, 0)

		tr, err := collect(path)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"task_key": t.Key(),
				"path":     path,
				"error":    err,
			}).Warn("파일을 읽을 수 없어 정리 대상에서 제외합니다")
			continue
		}

		records = append(records, tr)
	}

	t.PublishStatusText("마무리 중")

	ctx := context.Background()

	if err := b.repo.Insert(ctx, records, func(total, current int) bool {
		t.SetTaskPosition(current, total)
		return !t.Interrupted()
	}, group); err != nil {
		return err
	}

	// 작업이 나중에 중단되면 저장된 전송 목록을 되돌립니다.
	t.Interrupter().AddCloser(func(userInitiated bool) {
		ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
		defer cancel()

		removed, err := b.repo.Remove(ctx, store.Query{GroupID: b.groupID})
		fields := applog.Fields{
			"group_id":       b.groupID,
			"user_initiated": userInitiated,
		}
		if err != nil {
			fields["error"] = err
			applog.WithComponentAndFields(component, fields).Error("중단된 작업의 전송 목록 삭제 실패")
			return
		}

		fields["removed_count"] = removed
		applog.WithComponentAndFields(component, fields).Info("중단된 작업의 전송 목록을 삭제하였습니다")
	})

	if err := b.repo.InsertGroup(ctx, group); err != nil {
		return err
	}

	b.repo.Broadcast()

	applog.WithComponentAndFields(component, applog.Fields{
		"task_key":       t.Key(),
		"group_id":       b.groupID,
		"transfer_count": len(records),
	}).Info("공유 파일 정리 완료")

	return nil
}

// collect path 하나를 전송 항목으로 변환합니다. 디렉토리는 하위 항목을 펼치지 않고 항목 하나로 기록합니다.
func collect(path string) (store.Transfer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return store.Transfer{}, err
	}

	return newTransfer(path, info), nil
}

func newTransfer(path string, info fs.FileInfo) store.Transfer {
	tr := store.Transfer{
		Name:  norm.NFC.String(info.Name()),
		Path:  path,
		IsDir: info.IsDir(),
	}

	if !tr.IsDir {
		tr.Size = info.Size()
		if m, err := mimetype.DetectFile(path); err == nil {
			tr.MIME = m.String()
		}
	}

	return tr
}

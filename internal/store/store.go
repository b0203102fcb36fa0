package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/share-worker/internal/pkg/errors"
	applog "github.com/darkkaiser/share-worker/pkg/log"

	_ "modernc.org/sqlite"
)

// component 저장소의 로깅용 컴포넌트 이름
const component = "store.sqlite"

var (
	// ErrAborted 진행 콜백이 false를 반환하여 삽입이 중단되었을 때 반환됩니다. 이 경우 아무것도 저장되지 않습니다.
	ErrAborted = apperrors.New(apperrors.Canceled, "전송 목록 저장이 중단되었습니다")

	// ErrClosed 닫힌 저장소를 사용하려 할 때 반환됩니다.
	ErrClosed = apperrors.New(apperrors.Unavailable, "저장소가 이미 닫혔습니다")
)

// Transfer 공유 대상 파일 하나의 정보입니다.
type Transfer struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	MIME    string `json:"mime"`
	IsDir   bool   `json:"is_dir"`
}

// Group 한 번의 정리 작업으로 만들어진 전송 묶음입니다.
type Group struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Query 삭제 대상을 지정합니다.
type Query struct {
	GroupID string
}

// Event 저장된 상태가 바뀌었음을 구독자에게 알립니다.
type Event struct {
	At time.Time
}

// Store SQLite 기반의 전송 목록 저장소입니다.
type Store struct {
	db *sql.DB

	subscribersMu sync.Mutex
	subscribers   map[int]func(Event)
	nextID        int
}

// Open path의 SQLite 데이터베이스를 열고 스키마를 준비합니다. 디렉토리가 없으면 만듭니다.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.System, "저장소 디렉토리 생성에 실패했습니다: '%s'", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "저장소 열기에 실패했습니다: '%s'", path)
	}

	// SQLite는 동시에 하나의 쓰기만 허용합니다.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, apperrors.Wrapf(err, apperrors.System, "저장소 설정에 실패했습니다: '%s'", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(err, apperrors.System, "저장소 스키마 생성에 실패했습니다")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"path": path,
	}).Info("저장소 열기 완료")

	return &Store{
		db:          db,
		subscribers: make(map[int]func(Event)),
	}, nil
}

// Close 데이터베이스 연결을 닫습니다.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "저장소 닫기에 실패했습니다")
	}
	return nil
}

// Insert records를 하나의 트랜잭션으로 parent 그룹에 저장합니다.
//
// 행 하나를 저장할 때마다 progress(total, current)를 호출하며, progress가 false를 반환하면
// 트랜잭션을 되돌리고 ErrAborted를 반환합니다. progress는 nil일 수 있습니다.
func (s *Store) Insert(ctx context.Context, records []Transfer, progress func(total, current int) bool, parent Group) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "전송 목록 저장 트랜잭션 시작에 실패했습니다")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transfers (group_id, name, path, size, mime, is_dir) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "전송 목록 저장 구문 준비에 실패했습니다")
	}
	defer stmt.Close()

	total := len(records)
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, parent.ID, r.Name, r.Path, r.Size, r.MIME, r.IsDir); err != nil {
			return apperrors.Wrapf(err, apperrors.System, "전송 목록 저장에 실패했습니다: '%s'", r.Path)
		}

		if progress != nil && !progress(total, i+1) {
			return ErrAborted
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "전송 목록 저장 트랜잭션 커밋에 실패했습니다")
	}

	return nil
}

// InsertGroup 전송 그룹을 저장합니다. CreatedAt이 비어 있으면 현재 시각을 사용합니다.
func (s *Store) InsertGroup(ctx context.Context, g Group) error {
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO transfer_groups (id, created_at) VALUES (?, ?)`, g.ID, createdAt.UnixMilli()); err != nil {
		return s.wrap(err, "전송 그룹 저장에 실패했습니다")
	}

	return nil
}

// Remove 그룹에 속한 전송 목록과 그룹을 삭제하고, 삭제된 전송 목록의 개수를 반환합니다.
func (s *Store) Remove(ctx context.Context, q Query) (int64, error) {
	if q.GroupID == "" {
		return 0, apperrors.New(apperrors.InvalidInput, "삭제할 전송 그룹 ID가 비어 있습니다")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, s.wrap(err, "전송 그룹 삭제 트랜잭션 시작에 실패했습니다")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM transfers WHERE group_id = ?`, q.GroupID)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.System, "전송 목록 삭제에 실패했습니다: '%s'", q.GroupID)
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transfer_groups WHERE id = ?`, q.GroupID); err != nil {
		return 0, apperrors.Wrapf(err, apperrors.System, "전송 그룹 삭제에 실패했습니다: '%s'", q.GroupID)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(err, apperrors.System, "전송 그룹 삭제 트랜잭션 커밋에 실패했습니다")
	}

	return removed, nil
}

// Groups 저장된 전송 그룹을 생성 순서대로 반환합니다.
func (s *Store) Groups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at FROM transfer_groups ORDER BY created_at, rowid`)
	if err != nil {
		return nil, s.wrap(err, "전송 그룹 조회에 실패했습니다")
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var (
			g         Group
			createdAt int64
		)
		if err := rows.Scan(&g.ID, &createdAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.System, "전송 그룹 조회 결과를 읽지 못했습니다")
		}
		g.CreatedAt = time.UnixMilli(createdAt)
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "전송 그룹 조회 중 오류가 발생했습니다")
	}

	return groups, nil
}

// Transfers 그룹에 속한 전송 목록을 저장 순서대로 반환합니다.
func (s *Store) Transfers(ctx context.Context, groupID string) ([]Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_id, name, path, size, mime, is_dir FROM transfers WHERE group_id = ? ORDER BY rowid`, groupID)
	if err != nil {
		return nil, s.wrap(err, "전송 목록 조회에 실패했습니다")
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var t Transfer
		if err := rows.Scan(&t.GroupID, &t.Name, &t.Path, &t.Size, &t.MIME, &t.IsDir); err != nil {
			return nil, apperrors.Wrap(err, apperrors.System, "전송 목록 조회 결과를 읽지 못했습니다")
		}
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "전송 목록 조회 중 오류가 발생했습니다")
	}

	return transfers, nil
}

// Subscribe 상태 변경 알림을 받을 함수를 등록하고, 등록을 해제하는 함수를 반환합니다.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subscribersMu.Lock()
	defer s.subscribersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.subscribersMu.Lock()
		defer s.subscribersMu.Unlock()

		delete(s.subscribers, id)
	}
}

// Broadcast 저장된 상태가 바뀌었음을 모든 구독자에게 알립니다. 구독자는 호출한 고루틴에서 실행됩니다.
func (s *Store) Broadcast() {
	s.subscribersMu.Lock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subscribersMu.Unlock()

	e := Event{At: time.Now()}
	for _, fn := range fns {
		s.notify(fn, e)
	}
}

func (s *Store) notify(fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic": r,
			}).Error("저장소 구독자 실행 중 패닉이 발생하여 복구하였습니다")
		}
	}()

	fn(e)
}

// wrap 닫힌 데이터베이스에서 발생한 에러는 ErrClosed로 바꿉니다.
func (s *Store) wrap(err error, message string) error {
	if err.Error() == "sql: database is closed" {
		return ErrClosed
	}
	return apperrors.Wrap(err, apperrors.System, message)
}

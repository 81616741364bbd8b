package configurator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultNoticeTTL — время жизни уведомления до автозакрытия
const DefaultNoticeTTL = 3 * time.Second

// NoticeLevel — визуальный тип уведомления
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeDanger  NoticeLevel = "danger"
)

// Notice — временное сообщение пользователю
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"createdAt"`
}

type noticeEntry struct {
	notice Notice
	timer  *time.Timer
}

// Notices — очередь уведомлений; каждое закрывается само через ttl.
// Безопасна для конкурентного использования: таймеры срабатывают в своих горутинах.
type Notices struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  map[string]*noticeEntry
	closed bool
}

// NewNotices создаёт очередь; ttl <= 0 заменяется на DefaultNoticeTTL.
func NewNotices(ttl time.Duration) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notices{ttl: ttl, items: make(map[string]*noticeEntry)}
}

// Push добавляет уведомление и запускает таймер автозакрытия.
func (n *Notices) Push(level NoticeLevel, message string) Notice {
	nt := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nt
	}

	id := nt.ID
	n.items[id] = &noticeEntry{
		notice: nt,
		timer:  time.AfterFunc(n.ttl, func() { n.expire(id) }),
	}
	return nt
}

func (n *Notices) expire(id string) {
	n.mu.Lock()
	delete(n.items, id)
	n.mu.Unlock()
}

// Dismiss закрывает уведомление досрочно. Повторный вызов ничего не делает.
func (n *Notices) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.items[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(n.items, id)
	return true
}

// List — активные уведомления, от старых к новым
func (n *Notices) List() []Notice {
	n.mu.Lock()
	out := make([]Notice, 0, len(n.items))
	for _, e := range n.items {
		out = append(out, e.notice)
	}
	n.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close останавливает все таймеры; новые уведомления больше не копятся.
func (n *Notices) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, e := range n.items {
		e.timer.Stop()
		delete(n.items, id)
	}
	n.closed = true
}

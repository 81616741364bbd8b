// Package configurator — движок конфигуратора: текущий выбор, цена,
// URL для шаринга и сохранённые снимки.
//
// Engine принадлежит одной сессии и не потокобезопасен: вызывающий
// слой сериализует обращения сам.
package configurator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/store"
)

// ErrNoStore — хранилище снимков не подключено.
var ErrNoStore = errors.New("snapshot store is not configured")

// ChangeKind — что изменилось в конфигурации
type ChangeKind string

const (
	ChangeOption    ChangeKind = "option"
	ChangeAccessory ChangeKind = "accessory"
	ChangeReplace   ChangeKind = "replace" // применён query или восстановлен снимок
)

// Change передаётся подписчикам после каждого изменения
type Change struct {
	Kind        ChangeKind
	Category    string
	OptionID    string
	AccessoryID string
	Present     bool
	Total       int64
}

// Listener — подписчик на изменения (UI, превью и т.п.)
type Listener func(Change)

// Engine — конфигуратор одной сессии
type Engine struct {
	table     *domain.PriceTable
	sel       *domain.Selection
	store     store.Store
	recordKey string
	now       func() time.Time
	logger    zerolog.Logger
	listeners []Listener
}

// Option настраивает Engine
type Option func(*Engine)

// WithStore подключает хранилище; key — имя записи снимка.
func WithStore(s store.Store, key string) Option {
	return func(e *Engine) {
		e.store = s
		e.recordKey = key
	}
}

// WithClock подменяет источник времени для меток снимков.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New создаёт движок с конфигурацией по умолчанию
func New(table *domain.PriceTable, opts ...Option) *Engine {
	e := &Engine{
		table:  table,
		sel:    domain.NewSelection(table),
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe добавляет подписчика на изменения
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

func (e *Engine) notify(c Change) {
	c.Total = e.sel.Total()
	for _, l := range e.listeners {
		l(c)
	}
}

// Table — прайс движка
func (e *Engine) Table() *domain.PriceTable {
	return e.table
}

// Selection — копия текущей конфигурации
func (e *Engine) Selection() *domain.Selection {
	return e.sel.Clone()
}

// SetCategoryOption выбирает опцию категории.
// Неизвестные ID не меняют состояние; ошибка описывает причину отказа.
func (e *Engine) SetCategoryOption(category, optionID string) (bool, error) {
	changed, err := e.sel.SetCategoryOption(category, optionID)
	if err != nil || !changed {
		return false, err
	}
	e.notify(Change{Kind: ChangeOption, Category: category, OptionID: optionID})
	return true, nil
}

// ToggleAccessory включает или выключает аксессуар
func (e *Engine) ToggleAccessory(id string, present bool) (bool, error) {
	changed, err := e.sel.ToggleAccessory(id, present)
	if err != nil || !changed {
		return false, err
	}
	e.notify(Change{Kind: ChangeAccessory, AccessoryID: id, Present: present})
	return true, nil
}

// Total — итоговая цена
func (e *Engine) Total() int64 {
	return e.sel.Total()
}

// SummaryLines — строки сводки для показа, печати и заявки
func (e *Engine) SummaryLines() []domain.SummaryLine {
	return e.sel.SummaryLines()
}

// Query — канонический query string текущей конфигурации
func (e *Engine) Query() string {
	return domain.EncodeQuery(e.sel)
}

// ApplyQuery накладывает query string на текущую конфигурацию.
func (e *Engine) ApplyQuery(query string) domain.QueryReport {
	before := e.sel.Clone()
	rep := e.sel.ApplyQuery(query)

	if len(rep.Rejected) > 0 {
		e.logger.Debug().Strs("rejected", rep.Rejected).Msg("query contained unknown values")
	}
	if !before.Equal(e.sel) {
		e.notifyReplaced(before)
	}
	return rep
}

// Reset возвращает конфигурацию к значениям по умолчанию
func (e *Engine) Reset() {
	before := e.sel.Clone()
	e.sel.Reset()
	if !before.Equal(e.sel) {
		e.notifyReplaced(before)
	}
}

// notifyReplaced рассылает ChangeReplace и отдельные события по изменившимся категориям.
func (e *Engine) notifyReplaced(before *domain.Selection) {
	e.notify(Change{Kind: ChangeReplace})
	for _, c := range e.table.Categories {
		was, _ := before.Choice(c.ID)
		now, _ := e.sel.Choice(c.ID)
		if was != now {
			e.notify(Change{Kind: ChangeOption, Category: c.ID, OptionID: now})
		}
	}
}

// SaveSnapshot сохраняет конфигурацию, перезаписывая предыдущий снимок.
func (e *Engine) SaveSnapshot(ctx context.Context) (domain.Snapshot, error) {
	if e.store == nil {
		return domain.Snapshot{}, ErrNoStore
	}

	snap := domain.NewSnapshot(e.sel, e.now())
	data, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := e.store.Put(ctx, e.recordKey, data); err != nil {
		return domain.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	e.logger.Debug().Str("key", e.recordKey).Int64("total", snap.TotalPrice).Msg("snapshot saved")
	return snap, nil
}

// LoadSnapshot читает сохранённый снимок.
// Отсутствующая, нечитаемая или повреждённая запись даёт ok=false.
func (e *Engine) LoadSnapshot(ctx context.Context) (*domain.Snapshot, bool) {
	if e.store == nil {
		return nil, false
	}

	data, ok, err := e.store.Get(ctx, e.recordKey)
	if err != nil {
		e.logger.Warn().Err(err).Str("key", e.recordKey).Msg("snapshot store unavailable")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	snap, err := domain.DecodeSnapshot(data)
	if err != nil {
		e.logger.Warn().Err(err).Str("key", e.recordKey).Msg("ignoring corrupt snapshot")
		return nil, false
	}
	return snap, true
}

// RestoreSnapshot заменяет текущую конфигурацию сохранённой.
// Возвращает false, если снимка нет; состояние тогда не меняется.
func (e *Engine) RestoreSnapshot(ctx context.Context) (*domain.Snapshot, bool) {
	snap, ok := e.LoadSnapshot(ctx)
	if !ok {
		return nil, false
	}

	before := e.sel
	e.sel = snap.Selection(e.table)
	if !before.Equal(e.sel) {
		e.notifyReplaced(before)
	}
	return snap, true
}

// ClearSnapshot удаляет сохранённый снимок
func (e *Engine) ClearSnapshot(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	if err := e.store.Delete(ctx, e.recordKey); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// Quote собирает заявку по текущей конфигурации
func (e *Engine) Quote() domain.QuoteRequest {
	return domain.NewQuoteRequest(e.sel, e.now())
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedSnapshot — сохранённая запись не является JSON нужной формы.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot — сохранённая конфигурация с итоговой ценой и временем сохранения.
type Snapshot struct {
	CategoryChoice map[string]string `json:"categoryChoice"`
	Accessories    []string          `json:"accessories"`
	TotalPrice     int64             `json:"totalPrice"`
	Timestamp      time.Time         `json:"timestamp"`
}

// NewSnapshot фиксирует текущее состояние конфигурации
func NewSnapshot(s *Selection, now time.Time) Snapshot {
	return Snapshot{
		CategoryChoice: s.Choices(),
		Accessories:    s.Accessories(),
		TotalPrice:     s.Total(),
		Timestamp:      now.UTC(),
	}
}

// EncodeSnapshot сериализует запись для хранилища
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	if snap.CategoryChoice == nil {
		snap.CategoryChoice = map[string]string{}
	}
	if snap.Accessories == nil {
		snap.Accessories = []string{}
	}
	return json.Marshal(snap)
}

// snapshotWire — все поля обязательны, поэтому указатели.
type snapshotWire struct {
	CategoryChoice *map[string]string `json:"categoryChoice"`
	Accessories    *[]string          `json:"accessories"`
	TotalPrice     *int64             `json:"totalPrice"`
	Timestamp      *string            `json:"timestamp"`
}

// DecodeSnapshot разбирает запись из хранилища и проверяет её форму.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	switch {
	case w.CategoryChoice == nil:
		return nil, fmt.Errorf("%w: categoryChoice is missing", ErrMalformedSnapshot)
	case w.Accessories == nil:
		return nil, fmt.Errorf("%w: accessories is missing", ErrMalformedSnapshot)
	case w.TotalPrice == nil:
		return nil, fmt.Errorf("%w: totalPrice is missing", ErrMalformedSnapshot)
	case w.Timestamp == nil:
		return nil, fmt.Errorf("%w: timestamp is missing", ErrMalformedSnapshot)
	}

	ts, err := time.Parse(time.RFC3339, *w.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrMalformedSnapshot, err)
	}

	return &Snapshot{
		CategoryChoice: *w.CategoryChoice,
		Accessories:    *w.Accessories,
		TotalPrice:     *w.TotalPrice,
		Timestamp:      ts,
	}, nil
}

// Selection восстанавливает конфигурацию из записи поверх значений по умолчанию.
// Неизвестные категории, опции и аксессуары отбрасываются.
func (snap *Snapshot) Selection(t *PriceTable) *Selection {
	s := NewSelection(t)
	for _, c := range t.Categories {
		if v, ok := snap.CategoryChoice[c.ID]; ok {
			_, _ = s.SetCategoryOption(c.ID, v)
		}
	}
	for _, id := range snap.Accessories {
		_, _ = s.ToggleAccessory(id, true)
	}
	return s
}

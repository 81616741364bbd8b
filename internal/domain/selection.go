package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownOption    = errors.New("unknown option")
	ErrUnknownAccessory = errors.New("unknown accessory")
)

// Selection — текущая конфигурация автомобиля в рамках одной сессии.
//
// Значения всегда валидны относительно прайса: неизвестные ID отклоняются
// и состояние не меняется. Selection не потокобезопасен.
type Selection struct {
	table       *PriceTable
	choices     map[string]string
	accessories []string // в порядке выбора
}

// NewSelection создаёт конфигурацию с опциями по умолчанию
func NewSelection(t *PriceTable) *Selection {
	s := &Selection{table: t}
	s.Reset()
	return s
}

// Reset возвращает все категории к значениям по умолчанию и снимает аксессуары.
func (s *Selection) Reset() {
	s.choices = make(map[string]string, len(s.table.Categories))
	for _, c := range s.table.Categories {
		s.choices[c.ID] = c.Default
	}
	s.accessories = nil
}

// Table — прайс, к которому привязана конфигурация
func (s *Selection) Table() *PriceTable {
	return s.table
}

// BasePrice — базовая цена
func (s *Selection) BasePrice() int64 {
	return s.table.BasePrice
}

// Choice возвращает выбранную опцию категории
func (s *Selection) Choice(category string) (string, bool) {
	v, ok := s.choices[category]
	return v, ok
}

// Choices — копия выбора по категориям
func (s *Selection) Choices() map[string]string {
	out := make(map[string]string, len(s.choices))
	for k, v := range s.choices {
		out[k] = v
	}
	return out
}

// Accessories — выбранные аксессуары в порядке выбора
func (s *Selection) Accessories() []string {
	out := make([]string, len(s.accessories))
	copy(out, s.accessories)
	return out
}

// SortedAccessories — выбранные аксессуары, отсортированные по ID
func (s *Selection) SortedAccessories() []string {
	out := s.Accessories()
	sort.Strings(out)
	return out
}

// HasAccessory проверяет, выбран ли аксессуар
func (s *Selection) HasAccessory(id string) bool {
	for _, a := range s.accessories {
		if a == id {
			return true
		}
	}
	return false
}

// SetCategoryOption меняет опцию категории.
// Для неизвестной категории или опции возвращает ошибку и ничего не меняет.
func (s *Selection) SetCategoryOption(category, optionID string) (bool, error) {
	c, ok := s.table.Category(category)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if _, ok := c.Option(optionID); !ok {
		return false, fmt.Errorf("%w: %s=%q", ErrUnknownOption, category, optionID)
	}

	if s.choices[category] == optionID {
		return false, nil
	}
	s.choices[category] = optionID
	return true, nil
}

// ToggleAccessory добавляет (present=true) или убирает аксессуар.
// Повторное включение или выключение отсутствующего ничего не меняет.
func (s *Selection) ToggleAccessory(id string, present bool) (bool, error) {
	if _, ok := s.table.Accessory(id); !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAccessory, id)
	}

	has := s.HasAccessory(id)
	switch {
	case present && !has:
		s.accessories = append(s.accessories, id)
		return true, nil
	case !present && has:
		out := s.accessories[:0]
		for _, a := range s.accessories {
			if a != id {
				out = append(out, a)
			}
		}
		s.accessories = out
		return true, nil
	default:
		return false, nil
	}
}

// Total — итоговая цена: база + опции категорий + аксессуары.
func (s *Selection) Total() int64 {
	total := s.table.BasePrice
	for category, optionID := range s.choices {
		if price, ok := s.table.OptionPrice(category, optionID); ok {
			total += price
		}
	}
	for _, id := range s.accessories {
		if a, ok := s.table.Accessory(id); ok {
			total += a.Price
		}
	}
	return total
}

// Clone — независимая копия
func (s *Selection) Clone() *Selection {
	return &Selection{
		table:       s.table,
		choices:     s.Choices(),
		accessories: s.Accessories(),
	}
}

// Equal сравнивает выбор категорий и множество аксессуаров (порядок не важен).
func (s *Selection) Equal(o *Selection) bool {
	if o == nil {
		return false
	}
	if len(s.choices) != len(o.choices) || len(s.accessories) != len(o.accessories) {
		return false
	}
	for k, v := range s.choices {
		if o.choices[k] != v {
			return false
		}
	}
	for _, a := range s.accessories {
		if !o.HasAccessory(a) {
			return false
		}
	}
	return true
}

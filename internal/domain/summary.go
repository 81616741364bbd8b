package domain

// Виды строк сводки
const (
	LineOption    = "option"
	LineAccessory = "accessory"
)

// SummaryLine — строка сводки конфигурации для показа, печати и заявки.
type SummaryLine struct {
	Kind     string `json:"kind"`
	Key      string `json:"key"`                // категория или ID аксессуара
	OptionID string `json:"optionId,omitempty"` // только для категорий
	Label    string `json:"label"`
	Amount   int64  `json:"amount"`
}

// SummaryLines строит сводку: сначала категории с ненулевой доплатой
// в порядке объявления, затем аксессуары в порядке выбора.
func (s *Selection) SummaryLines() []SummaryLine {
	lines := make([]SummaryLine, 0, len(s.table.Categories)+len(s.accessories))

	for _, c := range s.table.Categories {
		o, ok := c.Option(s.choices[c.ID])
		if !ok || o.Price == 0 {
			continue
		}
		lines = append(lines, SummaryLine{
			Kind:     LineOption,
			Key:      c.ID,
			OptionID: o.ID,
			Label:    c.Label + ": " + o.Label,
			Amount:   o.Price,
		})
	}

	for _, id := range s.accessories {
		a, ok := s.table.Accessory(id)
		if !ok {
			continue
		}
		lines = append(lines, SummaryLine{
			Kind:   LineAccessory,
			Key:    a.ID,
			Label:  a.Label,
			Amount: a.Price,
		})
	}

	return lines
}

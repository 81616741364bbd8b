package preview

import (
	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/domain"
)

const (
	TypeColorChanged  = "color_changed"
	TypeWheelsChanged = "wheels_changed"

	colorCategory  = "color"
	wheelsCategory = "wheels"
)

// Цвета модели, если у опции нет своего swatch.
const (
	DefaultBodySwatch  = "#007BFF"
	DefaultWheelSwatch = "#222222"
)

// Appearance — что превью должно перекрасить
type Appearance struct {
	OptionID string `json:"optionId"`
	Swatch   string `json:"swatch"`
}

// MessageForChange превращает изменение конфигурации в событие превью.
// Изменения, не влияющие на внешний вид, дают ok=false.
func MessageForChange(table *domain.PriceTable, session string, c configurator.Change) (Message, bool) {
	if c.Kind != configurator.ChangeOption {
		return Message{}, false
	}

	var typ, fallback string
	switch c.Category {
	case colorCategory:
		typ, fallback = TypeColorChanged, DefaultBodySwatch
	case wheelsCategory:
		typ, fallback = TypeWheelsChanged, DefaultWheelSwatch
	default:
		return Message{}, false
	}

	return Message{
		Type:    typ,
		Payload: appearance(table, c.Category, c.OptionID, fallback),
		Sender:  session,
	}, true
}

// InitialMessages — текущий цвет кузова и колёс для только что подключённого клиента.
func InitialMessages(table *domain.PriceTable, session string, s *domain.Selection) []Message {
	var out []Message
	for _, cat := range []string{colorCategory, wheelsCategory} {
		opt, ok := s.Choice(cat)
		if !ok {
			continue
		}
		if m, ok := MessageForChange(table, session, configurator.Change{
			Kind:     configurator.ChangeOption,
			Category: cat,
			OptionID: opt,
		}); ok {
			out = append(out, m)
		}
	}
	return out
}

func appearance(table *domain.PriceTable, category, optionID, fallback string) Appearance {
	a := Appearance{OptionID: optionID, Swatch: fallback}
	if c, ok := table.Category(category); ok {
		if o, ok := c.Option(optionID); ok && o.Swatch != "" {
			a.Swatch = o.Swatch
		}
	}
	return a
}

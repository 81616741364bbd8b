package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPriceTable возвращается, если прайс нарушает инварианты
// (нет единственной бесплатной опции по умолчанию, отрицательная цена и т.п.).
var ErrInvalidPriceTable = errors.New("invalid price table")

// DefaultBasePrice — базовая цена автомобиля без опций.
const DefaultBasePrice int64 = 5000

// Option описывает один вариант внутри категории
type Option struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Price  int64  `json:"price" yaml:"price"`
	Swatch string `json:"swatch,omitempty" yaml:"swatch,omitempty"` // цвет для превью (color / wheels)
}

// Category — настраиваемое измерение автомобиля (power, battery, ...).
// Ровно одна опция категории бесплатная и используется по умолчанию.
type Category struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Default string   `json:"default" yaml:"-"`
	Options []Option `json:"options" yaml:"options"`

	index map[string]int
}

// Accessory — дополнительная опция, включается независимо
type Accessory struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Price int64  `json:"price" yaml:"price"`
}

// PriceTable — неизменяемый прайс конфигуратора.
// Порядок Categories задаёт канонический порядок для URL и сводки.
type PriceTable struct {
	BasePrice   int64       `json:"basePrice"`
	Categories  []Category  `json:"categories"`
	Accessories []Accessory `json:"accessories"`

	categories  map[string]int
	accessories map[string]int
}

// NewPriceTable проверяет инварианты и строит индексы.
func NewPriceTable(basePrice int64, categories []Category, accessories []Accessory) (*PriceTable, error) {
	if basePrice <= 0 {
		return nil, fmt.Errorf("%w: base price must be positive, got %d", ErrInvalidPriceTable, basePrice)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidPriceTable)
	}

	t := &PriceTable{
		BasePrice:   basePrice,
		Categories:  make([]Category, 0, len(categories)),
		Accessories: make([]Accessory, 0, len(accessories)),
		categories:  make(map[string]int, len(categories)),
		accessories: make(map[string]int, len(accessories)),
	}

	for _, c := range categories {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: category with empty id", ErrInvalidPriceTable)
		}
		if c.ID == AccessoriesParam {
			return nil, fmt.Errorf("%w: category id %q is reserved", ErrInvalidPriceTable, c.ID)
		}
		if _, dup := t.categories[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidPriceTable, c.ID)
		}

		cat := Category{
			ID:      c.ID,
			Label:   c.Label,
			Options: make([]Option, 0, len(c.Options)),
			index:   make(map[string]int, len(c.Options)),
		}
		if cat.Label == "" {
			cat.Label = c.ID
		}

		for _, o := range c.Options {
			if o.ID == "" {
				return nil, fmt.Errorf("%w: category %q has an option with empty id", ErrInvalidPriceTable, c.ID)
			}
			if o.Price < 0 {
				return nil, fmt.Errorf("%w: %s=%s has negative price %d", ErrInvalidPriceTable, c.ID, o.ID, o.Price)
			}
			if _, dup := cat.index[o.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate option %s=%s", ErrInvalidPriceTable, c.ID, o.ID)
			}
			if o.Price == 0 {
				if cat.Default != "" {
					return nil, fmt.Errorf("%w: category %q has more than one zero-cost option (%s, %s)",
						ErrInvalidPriceTable, c.ID, cat.Default, o.ID)
				}
				cat.Default = o.ID
			}
			if o.Label == "" {
				o.Label = o.ID
			}
			cat.index[o.ID] = len(cat.Options)
			cat.Options = append(cat.Options, o)
		}

		if cat.Default == "" {
			return nil, fmt.Errorf("%w: category %q has no zero-cost default", ErrInvalidPriceTable, c.ID)
		}

		t.categories[cat.ID] = len(t.Categories)
		t.Categories = append(t.Categories, cat)
	}

	for _, a := range accessories {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: accessory with empty id", ErrInvalidPriceTable)
		}
		if a.Price < 0 {
			return nil, fmt.Errorf("%w: accessory %q has negative price %d", ErrInvalidPriceTable, a.ID, a.Price)
		}
		if _, dup := t.accessories[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate accessory %q", ErrInvalidPriceTable, a.ID)
		}
		if a.Label == "" {
			a.Label = a.ID
		}
		t.accessories[a.ID] = len(t.Accessories)
		t.Accessories = append(t.Accessories, a)
	}

	return t, nil
}

// Category ищет категорию по ID
func (t *PriceTable) Category(id string) (*Category, bool) {
	i, ok := t.categories[id]
	if !ok {
		return nil, false
	}
	return &t.Categories[i], true
}

// Option ищет опцию категории
func (c *Category) Option(id string) (*Option, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.Options[i], true
}

// OptionPrice возвращает цену опции; ok=false для неизвестной пары.
func (t *PriceTable) OptionPrice(category, optionID string) (int64, bool) {
	c, ok := t.Category(category)
	if !ok {
		return 0, false
	}
	o, ok := c.Option(optionID)
	if !ok {
		return 0, false
	}
	return o.Price, true
}

// Accessory ищет аксессуар по ID
func (t *PriceTable) Accessory(id string) (*Accessory, bool) {
	i, ok := t.accessories[id]
	if !ok {
		return nil, false
	}
	return &t.Accessories[i], true
}

// CategoryIDs — ID категорий в порядке объявления
func (t *PriceTable) CategoryIDs() []string {
	ids := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		ids[i] = c.ID
	}
	return ids
}

// AccessoryIDs — отсортированные ID аксессуаров
func (t *PriceTable) AccessoryIDs() []string {
	ids := make([]string, len(t.Accessories))
	for i, a := range t.Accessories {
		ids[i] = a.ID
	}
	sort.Strings(ids)
	return ids
}

// DefaultPriceTable — стандартный прайс Ascendance EV.
func DefaultPriceTable() *PriceTable {
	t, err := NewPriceTable(DefaultBasePrice, defaultCategories(), defaultAccessories())
	if err != nil {
		// встроенный прайс обязан быть валидным
		panic(err)
	}
	return t
}

func defaultCategories() []Category {
	return []Category{
		{
			ID:    "power",
			Label: "Power System",
			Options: []Option{
				{ID: "1wd", Label: "1 Wheel Drive", Price: 0},
				{ID: "2wd", Label: "2 Wheel Drive", Price: 3000},
				{ID: "3wd", Label: "3 Wheel Drive", Price: 4500},
			},
		},
		{
			ID:    "battery",
			Label: "Battery Capacity",
			Options: []Option{
				{ID: "5kw", Label: "5kW Battery", Price: 0},
				{ID: "10kw", Label: "10kW Battery", Price: 3000},
				{ID: "15kw", Label: "15kW Battery", Price: 4000},
				{ID: "20kw", Label: "20kW Battery", Price: 5000},
			},
		},
		{
			ID:    "windows",
			Label: "Window Type",
			Options: []Option{
				{ID: "standard", Label: "Standard Windows", Price: 0},
				{ID: "tinted", Label: "Tinted Windows", Price: 500},
				{ID: "double-pane", Label: "Double-Pane Windows", Price: 800},
			},
		},
		{
			ID:    "color",
			Label: "Paint",
			Options: []Option{
				{ID: "standard", Label: "Standard Blue", Price: 0, Swatch: "#007BFF"},
				{ID: "metallic", Label: "Metallic", Price: 1000, Swatch: "#8A9BB0"},
				{ID: "matte", Label: "Matte", Price: 1500, Swatch: "#3A3A3A"},
				{ID: "pearl", Label: "Pearl", Price: 2000, Swatch: "#F5F5F0"},
			},
		},
		{
			ID:    "wheels",
			Label: "Wheels",
			Options: []Option{
				{ID: "standard", Label: "Standard Wheels", Price: 0, Swatch: "#222222"},
				{ID: "alloy", Label: "Alloy Wheels", Price: 1200, Swatch: "#C0C0C0"},
				{ID: "premium", Label: "Premium Wheels", Price: 2500, Swatch: "#FFD700"},
			},
		},
		{
			ID:    "interior",
			Label: "Interior",
			Options: []Option{
				{ID: "standard", Label: "Standard Interior", Price: 0},
				{ID: "leather", Label: "Leather", Price: 2000},
				{ID: "premium-leather", Label: "Premium Leather", Price: 3500},
			},
		},
	}
}

func defaultAccessories() []Accessory {
	return []Accessory{
		{ID: "sound-system", Label: "Sound System", Price: 800},
		{ID: "gps-navigation", Label: "GPS Navigation", Price: 1200},
		{ID: "backup-camera", Label: "Backup Camera", Price: 600},
		{ID: "heated-seats", Label: "Heated Seats", Price: 400},
		{ID: "sunroof", Label: "Sunroof", Price: 1500},
		{ID: "towing-package", Label: "Towing Package", Price: 1000},
	}
}

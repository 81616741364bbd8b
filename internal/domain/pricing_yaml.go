package domain

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// priceTableFile — формат YAML-файла с прайсом.
type priceTableFile struct {
	BasePrice   *int64      `yaml:"base_price"` // nil — ключ не задан
	Categories  []Category  `yaml:"categories"`
	Accessories []Accessory `yaml:"accessories"`
}

// LoadPriceTable читает прайс из YAML-файла.
// Пустой путь означает встроенный прайс.
func LoadPriceTable(path string) (*PriceTable, error) {
	if path == "" {
		return DefaultPriceTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}
	return ParsePriceTable(data)
}

// ParsePriceTable разбирает YAML и проверяет инварианты прайса.
// Неизвестные поля считаются ошибкой.
func ParsePriceTable(data []byte) (*PriceTable, error) {
	var f priceTableFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse price table: %w", err)
	}

	// цена по умолчанию только для отсутствующего ключа; явный 0 отвергает NewPriceTable
	base := DefaultBasePrice
	if f.BasePrice != nil {
		base = *f.BasePrice
	}

	return NewPriceTable(base, f.Categories, f.Accessories)
}

package domain

import (
	"net/url"
	"sort"
	"strings"
)

// AccessoriesParam — параметр URL со списком аксессуаров через запятую.
const AccessoriesParam = "acc"

// EncodeQuery строит канонический query string конфигурации.
//
// Категории идут в порядке объявления и пропускаются, если выбрана бесплатная
// опция по умолчанию. Параметр acc содержит отсортированные аксессуары и
// не выводится, если аксессуаров нет. Равные конфигурации всегда дают одну строку.
func EncodeQuery(s *Selection) string {
	parts := make([]string, 0, len(s.table.Categories)+1)

	for _, c := range s.table.Categories {
		v := s.choices[c.ID]
		if v == "" || v == c.Default {
			continue
		}
		parts = append(parts, url.QueryEscape(c.ID)+"="+url.QueryEscape(v))
	}

	if len(s.accessories) > 0 {
		acc := s.SortedAccessories()
		for i := range acc {
			acc[i] = url.QueryEscape(acc[i])
		}
		parts = append(parts, AccessoriesParam+"="+strings.Join(acc, ","))
	}

	return strings.Join(parts, "&")
}

// ParseQuery строит новую конфигурацию из query string поверх значений по умолчанию.
// Никогда не падает: в худшем случае возвращает конфигурацию по умолчанию.
func ParseQuery(t *PriceTable, query string) *Selection {
	s := NewSelection(t)
	s.ApplyQuery(query)
	return s
}

// QueryReport — что было применено и что отброшено при разборе query.
type QueryReport struct {
	Applied  int      `json:"applied"`
	Rejected []string `json:"rejected,omitempty"` // key=value отброшенных пар
}

// ApplyQuery накладывает query string на текущую конфигурацию.
//
// Неизвестные ключи игнорируются; неизвестная опция оставляет прежнее значение
// категории; acc (если присутствует) заменяет набор аксессуаров, пустые и
// неизвестные ID отбрасываются.
func (s *Selection) ApplyQuery(query string) QueryReport {
	var rep QueryReport

	raw := strings.TrimPrefix(strings.TrimSpace(query), "?")
	values, err := url.ParseQuery(raw)
	if err != nil {
		// url.ParseQuery возвращает разобранное и только первую ошибку
		rep.Rejected = append(rep.Rejected, malformedSegments(raw)...)
	}

	for _, c := range s.table.Categories {
		vs, ok := values[c.ID]
		if !ok || len(vs) == 0 {
			continue
		}
		v := strings.TrimSpace(vs[len(vs)-1])
		if _, err := s.SetCategoryOption(c.ID, v); err != nil {
			rep.Rejected = append(rep.Rejected, c.ID+"="+v)
			continue
		}
		rep.Applied++
	}

	if vs, ok := values[AccessoriesParam]; ok && len(vs) > 0 {
		s.accessories = nil
		for _, id := range strings.Split(vs[len(vs)-1], ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, err := s.ToggleAccessory(id, true); err != nil {
				rep.Rejected = append(rep.Rejected, AccessoriesParam+"="+id)
				continue
			}
			rep.Applied++
		}
	}

	for key, vs := range values {
		if key == AccessoriesParam {
			continue
		}
		if _, ok := s.table.Category(key); ok {
			continue
		}
		for _, v := range vs {
			rep.Rejected = append(rep.Rejected, key+"="+v)
		}
	}
	sort.Strings(rep.Rejected)

	return rep
}

// malformedSegments — пары query, которые не удаётся раскодировать.
func malformedSegments(raw string) []string {
	var bad []string
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		if _, err := url.ParseQuery(seg); err != nil {
			bad = append(bad, seg)
		}
	}
	return bad
}

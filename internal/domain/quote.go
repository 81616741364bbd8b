package domain

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// QuoteRequest — заявка на расчёт стоимости, которую посетитель отправляет дилеру.
type QuoteRequest struct {
	ID              string            `json:"id"`
	BasePrice       int64             `json:"basePrice"`
	TotalPrice      int64             `json:"totalPrice"`
	CategoryChoice  map[string]string `json:"categoryChoice"`
	Accessories     []string          `json:"accessories"`
	SelectedOptions []SummaryLine     `json:"selectedOptions"`
	Query           string            `json:"query"`
	Timestamp       time.Time         `json:"timestamp"`
}

// NewQuoteRequest собирает заявку из текущей конфигурации
func NewQuoteRequest(s *Selection, now time.Time) QuoteRequest {
	return QuoteRequest{
		ID:              uuid.NewString(),
		BasePrice:       s.BasePrice(),
		TotalPrice:      s.Total(),
		CategoryChoice:  s.Choices(),
		Accessories:     s.Accessories(),
		SelectedOptions: s.SummaryLines(),
		Query:           EncodeQuery(s),
		Timestamp:       now.UTC(),
	}
}

// ContactURL — ссылка на страницу контактов с заявкой в параметре config.
func (q QuoteRequest) ContactURL(contactPath string) (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return contactPath + "?config=" + url.QueryEscape(string(data)), nil
}

// DecodeQuoteRequest читает заявку из хранилища
func DecodeQuoteRequest(data []byte) (QuoteRequest, error) {
	var q QuoteRequest
	if err := json.Unmarshal(data, &q); err != nil {
		return QuoteRequest{}, err
	}
	if q.ID == "" {
		return QuoteRequest{}, errors.New("quote request without id")
	}
	return q, nil
}

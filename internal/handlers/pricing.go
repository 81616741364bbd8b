package handlers

import (
	"net/http"

	"ev-configurator-backend/internal/domain"
)

type pricingView struct {
	*domain.PriceTable
	BasePriceFormatted string `json:"basePriceFormatted"`
}

// HandlePricing — таблица цен для отрисовки формы.
//
// Таблица неизменяема после старта, поэтому отдается без блокировок.
func (e *Env) HandlePricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	e.writeJSON(w, pricingView{
		PriceTable:         e.Table,
		BasePriceFormatted: domain.FormatPrice(e.Table.BasePrice),
	})
}

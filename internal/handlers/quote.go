package handlers

import (
	"encoding/json"
	"net/http"

	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/metrics"
)

// QuoteKeyPrefix — префикс ключей заявок в хранилище
const QuoteKeyPrefix = "quote/"

type quoteResponse struct {
	Quote      domain.QuoteRequest `json:"quote"`
	ContactURL string              `json:"contactUrl"`
}

// POST /api/sessions/{id}/quote
func (e *Env) HandleQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	q := sess.engine.Quote()
	sess.mu.Unlock()

	contactURL, err := q.ContactURL(e.ContactPath)
	if err != nil {
		http.Error(w, "failed to build contact url", http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(q)
	if err != nil {
		http.Error(w, "failed to marshal quote", http.StatusInternalServerError)
		return
	}
	if err := e.Store.Put(r.Context(), QuoteKeyPrefix+q.ID, data); err != nil {
		// заявка всё равно уходит через contact URL
		e.Logger.Error().Err(err).Str("quote", q.ID).Msg("quote store failed")
	}

	metrics.RecordQuote(q.TotalPrice)
	e.NotifyTelegramQuote(q)
	sess.notices.Push(configurator.NoticeSuccess, "Quote request prepared")

	e.Logger.Info().
		Str("session", sess.ID).
		Str("quote", q.ID).
		Int64("total", q.TotalPrice).
		Msg("quote requested")

	e.writeJSON(w, quoteResponse{Quote: q, ContactURL: contactURL})
}

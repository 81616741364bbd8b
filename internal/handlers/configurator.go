package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/metrics"
	"ev-configurator-backend/internal/preview"
)

const (
	visitorCookie  = "visitor"
	visitorMaxAge  = 365 * 24 * 60 * 60
	maxRequestBody = 64 << 10
)

// SummaryLineView — строка сводки с готовой суммой для показа
type SummaryLineView struct {
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	OptionID  string `json:"optionId,omitempty"`
	Label     string `json:"label"`
	Amount    int64  `json:"amount"`
	Formatted string `json:"formatted"`
}

// StateView — состояние сессии для фронтенда
type StateView struct {
	SessionID      string                `json:"sessionId"`
	CategoryChoice map[string]string     `json:"categoryChoice"`
	Accessories    []string              `json:"accessories"`
	BasePrice      int64                 `json:"basePrice"`
	TotalPrice     int64                 `json:"totalPrice"`
	TotalFormatted string                `json:"totalFormatted"`
	Summary        []SummaryLineView     `json:"summary"`
	Query          string                `json:"query"`
	ShareURL       string                `json:"shareUrl"`
	Notices        []configurator.Notice `json:"notices"`

	Rejected []string `json:"rejectedInput,omitempty"`
	Restored bool     `json:"restored,omitempty"`
}

// вызывать под sess.mu
func (e *Env) stateView(sess *Session) StateView {
	eng := sess.engine
	sel := eng.Selection()

	lines := eng.SummaryLines()
	summary := make([]SummaryLineView, 0, len(lines))
	for _, l := range lines {
		summary = append(summary, SummaryLineView{
			Kind:      l.Kind,
			Key:       l.Key,
			OptionID:  l.OptionID,
			Label:     l.Label,
			Amount:    l.Amount,
			Formatted: domain.FormatSurcharge(l.Amount),
		})
	}

	query := eng.Query()
	return StateView{
		SessionID:      sess.ID,
		CategoryChoice: sel.Choices(),
		Accessories:    sel.Accessories(),
		BasePrice:      sel.BasePrice(),
		TotalPrice:     eng.Total(),
		TotalFormatted: domain.FormatPrice(eng.Total()),
		Summary:        summary,
		Query:          query,
		ShareURL:       e.shareURL(query),
		Notices:        sess.notices.List(),
	}
}

// visitorID — id посетителя из cookie; при отсутствии выдаём новый.
func (e *Env) visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   visitorMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (e *Env) newSession(visitorID string) *Session {
	id := uuid.NewString()
	logger := e.Logger.With().Str("session", id).Logger()

	eng := configurator.New(e.Table,
		configurator.WithStore(e.Store, e.SnapshotName+"/"+visitorID),
		configurator.WithLogger(logger),
		configurator.WithClock(e.now),
	)

	if hub := e.Hub; hub != nil {
		table := e.Table
		eng.Subscribe(func(c configurator.Change) {
			if m, ok := preview.MessageForChange(table, id, c); ok {
				hub.Publish(id, m)
			}
		})
	}

	return &Session{
		ID:        id,
		VisitorID: visitorID,
		engine:    eng,
		notices:   configurator.NewNotices(e.NoticeTTL),
	}
}

// session достаёт сессию по {id}; иначе отвечает 404.
func (e *Env) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := e.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// withoutParam убирает служебный параметр из сырого query string.
func withoutParam(raw, name string) string {
	parts := strings.Split(raw, "&")
	kept := parts[:0]
	for _, p := range parts {
		key := p
		if i := strings.IndexByte(p, '='); i >= 0 {
			key = p[:i]
		}
		if key == name || p == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "&")
}

// POST /api/sessions[?restore=1&<shared query>]
func (e *Env) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	visitor := e.visitorID(w, r)
	sess := e.newSession(visitor)

	restore := r.URL.Query().Get("restore") == "1"
	query := withoutParam(r.URL.RawQuery, "restore")

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var restored bool
	if restore {
		_, restored = sess.engine.RestoreSnapshot(r.Context())
		metrics.RecordSnapshot("restore", restored)
		if restored {
			sess.notices.Push(configurator.NoticeInfo, "Saved configuration restored")
		}
	}

	// ссылка "поделиться" накладывается поверх сохранённого снимка
	var rejected []string
	if query != "" {
		rep := sess.engine.ApplyQuery(query)
		rejected = rep.Rejected
		metrics.AddRejectedQuery(len(rep.Rejected))
	}

	e.Sessions.Add(sess)
	e.Logger.Debug().
		Str("session", sess.ID).
		Bool("restored", restored).
		Int("rejected", len(rejected)).
		Msg("session created")

	view := e.stateView(sess)
	view.Restored = restored
	view.Rejected = rejected
	e.writeJSONStatus(w, http.StatusCreated, view)
}

// GET/DELETE /api/sessions/{id}
func (e *Env) HandleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sess, ok := e.session(w, r)
		if !ok {
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		e.writeJSON(w, e.stateView(sess))

	case http.MethodDelete:
		if !e.Sessions.Remove(chi.URLParam(r, "id")) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type setOptionRequest struct {
	OptionID string `json:"optionId"`
}

// PUT /api/sessions/{id}/options/{category}
func (e *Env) HandleSetOption(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	var req setOptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category := chi.URLParam(r, "category")

	sess.mu.Lock()
	defer sess.mu.Unlock()

	changed, err := sess.engine.SetCategoryOption(category, req.OptionID)
	var rejected []string
	switch {
	case err != nil:
		// неизвестные id игнорируются, состояние прежнее
		metrics.IncRejected(err)
		rejected = []string{category + "=" + req.OptionID}
		e.Logger.Debug().Err(err).Str("session", sess.ID).Msg("option change ignored")
	case changed:
		metrics.IncOptionChange(category)
	}

	view := e.stateView(sess)
	view.Rejected = rejected
	e.writeJSON(w, view)
}

// PUT/DELETE /api/sessions/{id}/accessories/{accessoryId}
func (e *Env) HandleAccessory(w http.ResponseWriter, r *http.Request) {
	var present bool
	switch r.Method {
	case http.MethodPut:
		present = true
	case http.MethodDelete:
		present = false
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := e.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "accessoryId")

	sess.mu.Lock()
	defer sess.mu.Unlock()

	changed, err := sess.engine.ToggleAccessory(id, present)
	var rejected []string
	switch {
	case err != nil:
		metrics.IncRejected(err)
		rejected = []string{domain.AccessoriesParam + "=" + id}
		e.Logger.Debug().Err(err).Str("session", sess.ID).Msg("accessory toggle ignored")
	case changed:
		metrics.IncAccessoryToggle(present)
	}

	view := e.stateView(sess)
	view.Rejected = rejected
	e.writeJSON(w, view)
}

type applyQueryRequest struct {
	Query string `json:"query"`
}

// POST /api/sessions/{id}/query
func (e *Env) HandleApplyQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	var req applyQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	rep := sess.engine.ApplyQuery(req.Query)
	metrics.AddRejectedQuery(len(rep.Rejected))

	view := e.stateView(sess)
	view.Rejected = rep.Rejected
	e.writeJSON(w, view)
}

// POST /api/sessions/{id}/reset
func (e *Env) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.engine.Reset()
	e.writeJSON(w, e.stateView(sess))
}

// DELETE /api/sessions/{id}/notices/{noticeId}
func (e *Env) HandleDismissNotice(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}
	if !sess.notices.Dismiss(chi.URLParam(r, "noticeId")) {
		http.Error(w, "notice not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /ws/preview/{id}
func (e *Env) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if e.Hub == nil {
		http.NotFound(w, r)
		return
	}
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	hello := preview.InitialMessages(e.Table, sess.ID, sess.engine.Selection())
	sess.mu.Unlock()

	preview.ServeWs(e.Hub, sess.ID, w, r, hello...)
}

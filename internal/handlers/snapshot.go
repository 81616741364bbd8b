package handlers

import (
	"net/http"

	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/metrics"
)

type snapshotResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	State    StateView        `json:"state"`
}

// GET/POST/DELETE /api/sessions/{id}/snapshot
func (e *Env) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		snap, ok := sess.engine.LoadSnapshot(r.Context())
		metrics.RecordSnapshot("load", ok)
		if !ok {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		e.writeJSON(w, snapshotResponse{Snapshot: snap, State: e.stateView(sess)})

	case http.MethodPost:
		snap, err := sess.engine.SaveSnapshot(r.Context())
		metrics.RecordSnapshot("save", err == nil)
		if err != nil {
			// хранилище недоступно: пользователь видит только уведомление
			e.Logger.Warn().Err(err).Str("session", sess.ID).Msg("snapshot save failed")
			sess.notices.Push(configurator.NoticeWarning, "Configuration could not be saved")
			e.writeJSON(w, snapshotResponse{State: e.stateView(sess)})
			return
		}
		sess.notices.Push(configurator.NoticeSuccess, "Configuration saved successfully!")
		e.writeJSON(w, snapshotResponse{Snapshot: &snap, State: e.stateView(sess)})

	case http.MethodDelete:
		err := sess.engine.ClearSnapshot(r.Context())
		metrics.RecordSnapshot("clear", err == nil)
		if err != nil {
			e.Logger.Error().Err(err).Str("session", sess.ID).Msg("snapshot clear failed")
			http.Error(w, "snapshot store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/sessions/{id}/snapshot/restore
func (e *Env) HandleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	snap, ok := sess.engine.RestoreSnapshot(r.Context())
	metrics.RecordSnapshot("restore", ok)
	if !ok {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}

	sess.notices.Push(configurator.NoticeInfo, "Saved configuration restored")
	view := e.stateView(sess)
	view.Restored = true
	e.writeJSON(w, snapshotResponse{Snapshot: snap, State: view})
}

package handlers

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ev-configurator-backend/internal/domain"
)

const adminUser = "admin"

// HashAdminPassword — bcrypt-хеш для ADMIN_PASSWORD_HASH.
func HashAdminPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// requireAdmin — basic auth с паролем, сверяемым по bcrypt-хешу
func (e *Env) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if e.AdminPasswordHash == "" {
		http.NotFound(w, r)
		return false
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != adminUser ||
		bcrypt.CompareHashAndPassword([]byte(e.AdminPasswordHash), []byte(pass)) != nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="configurator admin"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// GET /api/admin/quotes — все заявки, новые сверху (только админ)
func (e *Env) HandleAdminQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !e.requireAdmin(w, r) {
		return
	}

	keys, err := e.Store.Keys(r.Context(), QuoteKeyPrefix)
	if err != nil {
		e.Logger.Error().Err(err).Msg("list quotes")
		http.Error(w, "quote store unavailable", http.StatusServiceUnavailable)
		return
	}

	list := make([]domain.QuoteRequest, 0, len(keys))
	for _, k := range keys {
		data, ok, err := e.Store.Get(r.Context(), k)
		if err != nil || !ok {
			continue
		}
		q, err := domain.DecodeQuoteRequest(data)
		if err != nil {
			e.Logger.Warn().Err(err).Str("key", k).Msg("skipping unreadable quote")
			continue
		}
		list = append(list, q)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		return strings.Compare(list[i].ID, list[j].ID) < 0
	})

	e.writeJSON(w, list)
}

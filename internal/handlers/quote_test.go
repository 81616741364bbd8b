package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ev-configurator-backend/internal/config"
	"ev-configurator-backend/internal/domain"
)

type telegramCall struct {
	path string
	form url.Values
}

func fakeTelegram(t *testing.T, status int) (*httptest.Server, <-chan telegramCall) {
	t.Helper()
	calls := make(chan telegramCall, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		calls <- telegramCall{path: r.URL.Path, form: r.PostForm}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestQuote_StoresAndNotifies(t *testing.T) {
	tg, calls := fakeTelegram(t, http.StatusOK)

	e := newTestEnv(t)
	e.Telegram = config.TelegramConfig{BotToken: "123:abc", ChatID: "-100", APIURL: tg.URL}
	view, _ := createSession(t, e, "/api/sessions?battery=10kw&wheels=alloy&acc=gps-navigation")

	rec := do(t, e.HandleQuote, http.MethodPost, "", "id", view.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(10400), resp.Quote.TotalPrice)
	assert.Equal(t, int64(5000), resp.Quote.BasePrice)
	assert.True(t, testNow.Equal(resp.Quote.Timestamp))
	require.True(t, strings.HasPrefix(resp.ContactURL, "contact.html?config="))

	u, err := url.Parse(resp.ContactURL)
	require.NoError(t, err)
	var inURL domain.QuoteRequest
	require.NoError(t, json.Unmarshal([]byte(u.Query().Get("config")), &inURL))
	assert.Equal(t, resp.Quote.ID, inURL.ID)
	assert.Len(t, inURL.SelectedOptions, 3)

	data, ok, err := e.Store.Get(context.Background(), QuoteKeyPrefix+resp.Quote.ID)
	require.NoError(t, err)
	require.True(t, ok)
	stored, err := domain.DecodeQuoteRequest(data)
	require.NoError(t, err)
	assert.Equal(t, resp.Quote.Query, stored.Query)

	select {
	case call := <-calls:
		assert.Equal(t, "/bot123:abc/sendMessage", call.path)
		assert.Equal(t, "-100", call.form.Get("chat_id"))
		assert.Equal(t, "HTML", call.form.Get("parse_mode"))
		assert.Contains(t, call.form.Get("text"), "Total: $10,400")
		assert.Contains(t, call.form.Get("text"), "GPS Navigation +$1,200")
	case <-time.After(2 * time.Second):
		t.Fatal("telegram was not notified")
	}
	e.Wait()
}

func TestQuote_TelegramDisabled(t *testing.T) {
	e := newTestEnv(t)
	view, _ := createSession(t, e, "/api/sessions")

	rec := do(t, e.HandleQuote, http.MethodPost, "", "id", view.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	e.Wait()
}

func TestSendTelegramMessage_Errors(t *testing.T) {
	tg, _ := fakeTelegram(t, http.StatusBadRequest)

	e := newTestEnv(t)
	e.Telegram = config.TelegramConfig{BotToken: "secret-token", ChatID: "1", APIURL: tg.URL}
	err := e.sendTelegramMessage(context.Background(), "1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	e.Telegram.APIURL = "http://127.0.0.1:1"
	err = e.sendTelegramMessage(context.Background(), "1", "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")

	e.Telegram.BotToken = ""
	assert.Error(t, e.sendTelegramMessage(context.Background(), "1", "hi"))
}

func TestQuoteMessage_EscapesHTML(t *testing.T) {
	msg := quoteMessage(domain.QuoteRequest{
		ID:              "q1",
		BasePrice:       100,
		TotalPrice:      150,
		SelectedOptions: []domain.SummaryLine{{Label: "<b>Roof</b>", Amount: 50}},
	})
	assert.Contains(t, msg, "&lt;b&gt;Roof&lt;/b&gt; +$50")
	assert.Contains(t, msg, "<b>Total: $150</b>")
}

func TestAdminQuotes(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	e := newTestEnv(t)
	e.AdminPasswordHash = string(hash)

	older := domain.QuoteRequest{ID: "a", TotalPrice: 6000, Timestamp: testNow.Add(-time.Hour)}
	newer := domain.QuoteRequest{ID: "b", TotalPrice: 9000, Timestamp: testNow}
	for _, q := range []domain.QuoteRequest{older, newer} {
		data, err := json.Marshal(q)
		require.NoError(t, err)
		require.NoError(t, e.Store.Put(context.Background(), QuoteKeyPrefix+q.ID, data))
	}
	require.NoError(t, e.Store.Put(context.Background(), QuoteKeyPrefix+"broken", []byte("{")))
	require.NoError(t, e.Store.Put(context.Background(), "ascendanceConfig/v", []byte("{}")))

	get := func(user, pass string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/quotes", nil)
		if user != "" {
			req.SetBasicAuth(user, pass)
		}
		rec := httptest.NewRecorder()
		e.HandleAdminQuotes(rec, req)
		return rec
	}

	rec := get("", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, http.StatusUnauthorized, get("admin", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, get("root", "s3cret").Code)

	rec = get("admin", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.QuoteRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestAdminQuotes_DisabledWithoutHash(t *testing.T) {
	e := newTestEnv(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/quotes", nil)
	req.SetBasicAuth("admin", "anything")
	e.HandleAdminQuotes(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHashAdminPassword(t *testing.T) {
	hash, err := HashAdminPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
}

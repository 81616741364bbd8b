package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ev-configurator-backend/internal/domain"
)

const telegramTimeout = 10 * time.Second

func (e *Env) httpClient() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return &http.Client{Timeout: telegramTimeout}
}

// sendTelegramMessage — низкоуровневый отправитель сообщений
func (e *Env) sendTelegramMessage(ctx context.Context, chatID, text string) error {
	token := strings.TrimSpace(e.Telegram.BotToken)
	chatID = strings.TrimSpace(chatID)
	if token == "" || chatID == "" {
		return errors.New("telegram: empty bot token or chat id")
	}

	apiURL := strings.TrimRight(e.Telegram.APIURL, "/") + "/bot" + token + "/sendMessage"

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient().Do(req)
	if err != nil {
		// токен в URL, в ошибку его не пускаем
		return fmt.Errorf("telegram: send: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram: non-OK status %s", resp.Status)
	}
	return nil
}

func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

// quoteMessage — текст уведомления о новой заявке
func quoteMessage(q domain.QuoteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚗 New quote request %s\n\n", template.HTMLEscapeString(q.ID))
	fmt.Fprintf(&b, "Base price: %s\n", domain.FormatPrice(q.BasePrice))
	for _, l := range q.SelectedOptions {
		fmt.Fprintf(&b, "• %s %s\n", template.HTMLEscapeString(l.Label), domain.FormatSurcharge(l.Amount))
	}
	fmt.Fprintf(&b, "\n<b>Total: %s</b>", domain.FormatPrice(q.TotalPrice))
	return b.String()
}

// NotifyTelegramQuote — уведомление отдела продаж о новой заявке
func (e *Env) NotifyTelegramQuote(q domain.QuoteRequest) {
	if !e.Telegram.Enabled() {
		return
	}

	text := quoteMessage(q)

	// не используем request-context: запрос к этому моменту уже завершён
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), telegramTimeout)
		defer cancel()

		if err := e.sendTelegramMessage(ctx, e.Telegram.ChatID, text); err != nil {
			e.Logger.Warn().Err(err).Str("quote", q.ID).Msg("telegram notify failed")
			return
		}
		e.Logger.Debug().Str("quote", q.ID).Msg("telegram notify sent")
	}()
}

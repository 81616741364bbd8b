package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/domain"
)

func (e *Env) shareURL(query string) string {
	base := strings.TrimRight(e.PublicBaseURL, "/") + "/"
	if query == "" {
		return base
	}
	return base + "?" + query
}

type shareResponse struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

// GET /api/sessions/{id}/share
func (e *Env) HandleShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	q := sess.engine.Query()
	sess.notices.Push(configurator.NoticeSuccess, "Configuration URL copied to clipboard!")
	e.writeJSON(w, shareResponse{URL: e.shareURL(q), Query: q})
}

// GET /api/sessions/{id}/print — статичная сводка для печати
func (e *Env) HandlePrint(w http.ResponseWriter, r *http.Request) {
	sess, ok := e.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	base := sess.engine.Selection().BasePrice()
	lines := sess.engine.SummaryLines()
	total := sess.engine.Total()
	sess.mu.Unlock()

	renderPrintSummary(w, e.Table, base, lines, total)
}

// printItem — заголовок и текст строки печатной сводки:
// для опции это название категории и название опции.
func printItem(table *domain.PriceTable, l domain.SummaryLine) (string, string) {
	if l.Kind == domain.LineAccessory {
		return "Accessory", l.Label
	}
	c, ok := table.Category(l.Key)
	if !ok {
		return "Option", l.Label
	}
	o, ok := c.Option(l.OptionID)
	if !ok {
		return c.Label, l.Label
	}
	return c.Label, o.Label
}

func renderPrintSummary(w http.ResponseWriter, table *domain.PriceTable, base int64, lines []domain.SummaryLine, total int64) {
	var items strings.Builder
	for _, l := range lines {
		title, value := printItem(table, l)
		fmt.Fprintf(&items, `
			<div class="config-item">
				<strong>%s:</strong> %s (%s)
			</div>`,
			template.HTMLEscapeString(title),
			template.HTMLEscapeString(value),
			template.HTMLEscapeString(domain.FormatSurcharge(l.Amount)),
		)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>Ascendance EV Configuration</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 20px; }
		.config-summary { max-width: 600px; margin: 0 auto; }
		.config-item { margin: 10px 0; padding: 10px; border-bottom: 1px solid #eee; }
		.total { font-size: 24px; font-weight: bold; color: #007bff; }
	</style>
</head>
<body onload="window.print()">
	<div class="config-summary">
		<h1>Ascendance EV Configuration Summary</h1>
		<div class="config-item">
			<strong>Base Price:</strong> %s
		</div>%s
		<div class="config-item total">
			<strong>Total Price: %s</strong>
		</div>
	</div>
</body>
</html>`,
		template.HTMLEscapeString(domain.FormatPrice(base)),
		items.String(),
		template.HTMLEscapeString(domain.FormatPrice(total)),
	)
}

package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice форматирует сумму в долларах с разделителями разрядов: $10,400.
func FormatPrice(amount int64) string {
	if amount < 0 {
		return pricePrinter.Sprintf("-$%d", -amount)
	}
	return pricePrinter.Sprintf("$%d", amount)
}

// FormatSurcharge — доплата со знаком: +$1,200.
func FormatSurcharge(amount int64) string {
	return "+" + FormatPrice(amount)
}

package templates

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brazil = language.BrazilianPortuguese

// FormatBRL renders an amount in reais with Brazilian separators, e.g. "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	p := message.NewPrinter(brazil)
	return p.Sprint(currency.Symbol(currency.BRL.Amount(amount.Round(2).InexactFloat64())))
}

func FormatCount(n int) string {
	return message.NewPrinter(brazil).Sprintf("%d", n)
}

func FormatScore(x float64) string {
	return message.NewPrinter(brazil).Sprintf("%.2f", x)
}

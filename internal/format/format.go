package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price formats an amount with two decimals in the conventions of lang.
// Example: Price(99.9, "BRL", "pt") => "R$ 99,90"; Price(99.9, "BRL", "en") => "R$99.90"
func Price(amount decimal.Decimal, currency, lang string) string {
	v := amount.Round(2).InexactFloat64()
	neg := v < 0
	if neg {
		v = -v
	}
	num := printer(lang).Sprintf("%.2f", v)
	sym := symbol(currency)
	var out string
	switch baseLang(lang) {
	case "pt":
		out = sym + " " + num
	default:
		out = sym + num
	}
	if neg {
		return "-" + out
	}
	return out
}

// Installments renders the "parcelamento" hint for a card.
// Example: Installments(3, 33.3, "BRL", "pt") => "até 3x de R$ 33,30"
func Installments(count int, amount decimal.Decimal, currency, lang string) string {
	if count <= 0 {
		return ""
	}
	p := Price(amount, currency, lang)
	switch baseLang(lang) {
	case "pt":
		return fmt.Sprintf("até %dx de %s", count, p)
	default:
		return fmt.Sprintf("or %d installments of %s", count, p)
	}
}

// Date formats t in a locale-friendly short form.
func Date(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch baseLang(lang) {
	case "pt":
		return t.Format("02/01/2006")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func printer(lang string) *message.Printer {
	switch baseLang(lang) {
	case "pt":
		return message.NewPrinter(language.BrazilianPortuguese)
	default:
		return message.NewPrinter(language.AmericanEnglish)
	}
}

func symbol(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "BRL":
		return "R$"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func baseLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i != -1 {
		lang = lang[:i]
	}
	return lang
}

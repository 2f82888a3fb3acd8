// Package money formats amounts for display and computes period changes.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	brazil  = language.BrazilianPortuguese
	printer = message.NewPrinter(brazil)
	titler  = cases.Title(brazil)
	hundred = decimal.NewFromInt(100)
)

// FormatBRL renders an amount the way Brazilian readers expect, e.g. "R$ 1.234,50".
func FormatBRL(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%v %v", currency.Symbol(currency.BRL), number.Decimal(f, number.Scale(2)))
}

// ChangePercent is the relative change from previous to current, rounded to
// one decimal. Growth from zero counts as 100%.
func ChangePercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	f, _ := current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(1).Float64()
	return f
}

// Share is part/total in percent, rounded to one decimal.
func Share(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	f, _ := part.Div(total).Mul(hundred).Round(1).Float64()
	return f
}

// Label turns a category slug such as "health-care" into "Health Care".
func Label(slug string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return titler.String(strings.TrimSpace(words))
}

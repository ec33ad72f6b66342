package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	CHF Currency = "CHF"
	GBP Currency = "GBP"
)

// SupportedCurrencies is the closed set of wallet and deposit currencies.
var SupportedCurrencies = []Currency{EUR, USD, CHF, GBP}

// MoneyPlaces is the scale every stored amount is rounded to.
const MoneyPlaces = 2

// ParseCurrency normalizes s and reports whether it is supported.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Supported()
}

func (c Currency) Supported() bool {
	switch c {
	case EUR, USD, CHF, GBP:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

type CurrencyPair struct {
	From Currency
	To   Currency
}

func (p CurrencyPair) String() string {
	return string(p.From) + "/" + string(p.To)
}

func (p CurrencyPair) Supported() bool {
	return p.From.Supported() && p.To.Supported()
}

// Round2 rounds an amount to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

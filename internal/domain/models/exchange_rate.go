package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RateSource string

const (
	RateSourceProvider RateSource = "provider"
	RateSourceFallback RateSource = "fallback"
)

// RatePlaces is the precision rates are kept at after cross-rate derivation.
const RatePlaces = 6

// RateTable maps FROM -> TO -> rate.
type RateTable map[Currency]map[Currency]decimal.Decimal

// RateSnapshot is an immutable view of the cached rate table.
type RateSnapshot struct {
	Rates     RateTable
	Source    RateSource
	UpdatedAt time.Time
}

// Rate looks a pair up in the snapshot.
func (s RateSnapshot) Rate(pair CurrencyPair) (decimal.Decimal, bool) {
	to, ok := s.Rates[pair.From]
	if !ok {
		return decimal.Decimal{}, false
	}
	r, ok := to[pair.To]
	return r, ok
}

// FallbackRates are the approximate rates served when no provider data is available.
var FallbackRates = map[CurrencyPair]decimal.Decimal{
	{From: EUR, To: USD}: decimal.RequireFromString("1.08"),
	{From: USD, To: EUR}: decimal.RequireFromString("0.93"),
	{From: GBP, To: USD}: decimal.RequireFromString("1.27"),
	{From: USD, To: GBP}: decimal.RequireFromString("0.79"),
	{From: CHF, To: USD}: decimal.RequireFromString("1.10"),
	{From: USD, To: CHF}: decimal.RequireFromString("0.91"),
}

// NewFallbackRateTable expands FallbackRates to every supported pair.
// Pairs without a direct entry are crossed through USD.
func NewFallbackRateTable() RateTable {
	table := make(RateTable, len(SupportedCurrencies))
	for _, from := range SupportedCurrencies {
		table[from] = make(map[Currency]decimal.Decimal, len(SupportedCurrencies))
		for _, to := range SupportedCurrencies {
			pair := CurrencyPair{From: from, To: to}
			switch {
			case from == to:
				table[from][to] = decimal.NewFromInt(1)
			case FallbackRates[pair].IsPositive():
				table[from][to] = FallbackRates[pair]
			default:
				toUSD := FallbackRates[CurrencyPair{From: from, To: USD}]
				fromUSD := FallbackRates[CurrencyPair{From: USD, To: to}]
				table[from][to] = toUSD.Mul(fromUSD).Round(RatePlaces)
			}
		}
	}
	return table
}

// NewRateTableFromUSD builds every supported pair from USD based quotes
// (units of currency per 1 USD). It reports false if a supported currency has no quote.
func NewRateTableFromUSD(perUSD map[Currency]decimal.Decimal) (RateTable, bool) {
	quotes := make(map[Currency]decimal.Decimal, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		if c == USD {
			quotes[c] = decimal.NewFromInt(1)
			continue
		}
		q, ok := perUSD[c]
		if !ok || !q.IsPositive() {
			return nil, false
		}
		quotes[c] = q
	}

	table := make(RateTable, len(SupportedCurrencies))
	for _, from := range SupportedCurrencies {
		table[from] = make(map[Currency]decimal.Decimal, len(SupportedCurrencies))
		for _, to := range SupportedCurrencies {
			if from == to {
				table[from][to] = decimal.NewFromInt(1)
				continue
			}
			table[from][to] = quotes[to].Div(quotes[from]).Round(RatePlaces)
		}
	}
	return table, true
}

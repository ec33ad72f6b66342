package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	http2 "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/http"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
)

var hundred = decimal.NewFromInt(100)

type SettingsHandler struct {
	rates      *interactor.ExchangeRateInteractor
	calculator *interactor.CommissionCalculator
}

func NewSettingsHandler(rates *interactor.ExchangeRateInteractor, calculator *interactor.CommissionCalculator) *SettingsHandler {
	return &SettingsHandler{rates: rates, calculator: calculator}
}

func (h *SettingsHandler) GetExchangeRates(w http.ResponseWriter, r *http.Request) {
	snapshot := h.rates.Snapshot()

	resp := dtos.ExchangeRatesResponse{
		Rates:     make(map[string]map[string]float64, len(snapshot.Rates)),
		Source:    string(snapshot.Source),
		UpdatedAt: snapshot.UpdatedAt,
	}
	for from, row := range snapshot.Rates {
		out := make(map[string]float64, len(row))
		for to, rate := range row {
			if from != to {
				out[string(to)] = rate.InexactFloat64()
			}
		}
		resp.Rates[string(from)] = out
	}

	http2.WriteJSON(w, http.StatusOK, resp)
}

// GetCommissionSettings reports rates both as fractions and as percentages.
func (h *SettingsHandler) GetCommissionSettings(w http.ResponseWriter, r *http.Request) {
	rates := h.calculator.Rates()

	http2.WriteJSON(w, http.StatusOK, dtos.CommissionSettingsResponse{
		Rate:                 rates.Platform.InexactFloat64(),
		Percentage:           rates.Platform.Mul(hundred).InexactFloat64(),
		ContractorRate:       rates.Contractor.Div(hundred).InexactFloat64(),
		ContractorPercentage: rates.Contractor.InexactFloat64(),
		UpdatedAt:            rates.UpdatedAt,
	})
}

package interactor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	repomocks "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories/mocks"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAdjustBalance(t *testing.T) {
	testCases := []struct {
		name          string
		allowNegative bool
		balance       string
		currency      models.Currency
		amount        string
		amountIn      models.Currency
		op            Operation
		want          string
		wantErr       error
	}{
		{name: "add_same_currency", allowNegative: true, balance: "100", currency: models.EUR, amount: "450", amountIn: models.EUR, op: OperationAdd, want: "550"},
		{name: "subtract_converted", allowNegative: true, balance: "100", currency: models.EUR, amount: "50", amountIn: models.USD, op: OperationSubtract, want: "53.5"},
		{name: "add_converted_rounds", allowNegative: true, balance: "0", currency: models.GBP, amount: "10.01", amountIn: models.USD, op: OperationAdd, want: "7.91"},
		{name: "negative_allowed", allowNegative: true, balance: "10", currency: models.USD, amount: "20", amountIn: models.USD, op: OperationSubtract, want: "-10"},
		{name: "negative_rejected", allowNegative: false, balance: "10", currency: models.USD, amount: "20", amountIn: models.USD, op: OperationSubtract, wantErr: apperrors.NewInsufficientFundsError()},
		{name: "exactly_zero_allowed", allowNegative: false, balance: "20", currency: models.USD, amount: "20", amountIn: models.USD, op: OperationSubtract, want: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := repomocks.NewMockUserRepository(ctrl)
			outbox := repomocks.NewMockOutboxRepository(ctrl)

			users.EXPECT().GetByIDForUpdate(gomock.Any(), "u1").
				Return(&models.User{ID: "u1", Balance: dec(tc.balance), BalanceCurrency: tc.currency}, nil)
			if tc.wantErr == nil {
				users.EXPECT().UpdateBalance(gomock.Any(), "u1", eqDecimal(tc.want), tc.currency).Return(nil)
				outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, events ...*models.OutboxEvent) error {
					require.Len(t, events, 1)
					assert.Equal(t, models.EventBalanceUpdated, events[0].Type)

					var payload models.BalanceUpdatedPayload
					require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
					assert.True(t, payload.Balance.Equal(dec(tc.want)))
					assert.True(t, payload.Previous.Equal(dec(tc.balance)))
					assert.Equal(t, tc.currency, payload.Currency)
					return nil
				})
			}

			ledger := NewBalanceLedger(users, outbox, NewCurrencyConverter(newStaticRates()), tc.allowNegative)
			change, err := ledger.AdjustBalance(context.Background(), "u1", dec(tc.amount), tc.amountIn, tc.op)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, change.Balance.Equal(dec(tc.want)), change.Balance.String())
			assert.Equal(t, tc.currency, change.Currency)
		})
	}
}

func TestAdjustBalanceUserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := repomocks.NewMockUserRepository(ctrl)
	outbox := repomocks.NewMockOutboxRepository(ctrl)
	users.EXPECT().GetByIDForUpdate(gomock.Any(), "ghost").Return(nil, apperrors.NewUserNotFoundError("ghost"))

	ledger := NewBalanceLedger(users, outbox, NewCurrencyConverter(newStaticRates()), true)
	_, err := ledger.AdjustBalance(context.Background(), "ghost", dec("1"), models.EUR, OperationAdd)

	var notFound *apperrors.UserNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAdjustBalanceUnknownOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := NewBalanceLedger(repomocks.NewMockUserRepository(ctrl), repomocks.NewMockOutboxRepository(ctrl),
		NewCurrencyConverter(newStaticRates()), true)

	_, err := ledger.AdjustBalance(context.Background(), "u1", dec("1"), models.EUR, Operation("multiply"))
	assert.Error(t, err)
}

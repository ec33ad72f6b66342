package interactor

import (
	"context"
	"fmt"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
)

type BalanceChange struct {
	UserID   string
	Currency models.Currency
	Previous decimal.Decimal
	Balance  decimal.Decimal
	// Applied is the signed amount in the balance currency.
	Applied decimal.Decimal
}

// Settlement is the unsigned effect of the change in the balance currency.
func (c *BalanceChange) Settlement() *models.Settlement {
	return &models.Settlement{Amount: c.Applied.Abs(), Currency: c.Currency}
}

// BalanceLedger mutates a single user balance. It never opens a transaction:
// callers pass a context that already carries one.
type BalanceLedger struct {
	userRepository   repositories.UserRepository
	outboxRepository repositories.OutboxRepository
	converter        *CurrencyConverter
	allowNegative    bool
	logger           *zerolog.Logger
}

func NewBalanceLedger(userRepository repositories.UserRepository, outboxRepository repositories.OutboxRepository, converter *CurrencyConverter, allowNegative bool) *BalanceLedger {
	l := log.GetLogger()
	return &BalanceLedger{
		userRepository:   userRepository,
		outboxRepository: outboxRepository,
		converter:        converter,
		allowNegative:    allowNegative,
		logger:           &l,
	}
}

// AdjustBalance adds or subtracts amount, given in currency, from the user's balance
// and queues a balanceUpdated event in the same transaction.
func (l *BalanceLedger) AdjustBalance(ctx context.Context, userID string, amount decimal.Decimal, currency models.Currency, op Operation) (*BalanceChange, error) {
	if op != OperationAdd && op != OperationSubtract {
		return nil, fmt.Errorf("unknown balance operation %q", op)
	}

	user, err := l.userRepository.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	converted, err := l.converter.Convert(ctx, amount, currency, user.BalanceCurrency)
	if err != nil {
		return nil, err
	}
	if op == OperationSubtract {
		converted = converted.Neg()
	}

	newBalance := models.Round2(user.Balance.Add(converted))
	if newBalance.IsNegative() {
		if !l.allowNegative {
			return nil, apperrors.NewInsufficientFundsError()
		}
		l.logger.Warn().
			Str("user_id", userID).
			Str("balance", newBalance.StringFixed(models.MoneyPlaces)).
			Msg("Balance goes negative")
	}

	if err = l.userRepository.UpdateBalance(ctx, userID, newBalance, user.BalanceCurrency); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	change := &BalanceChange{
		UserID:   userID,
		Currency: user.BalanceCurrency,
		Previous: user.Balance,
		Balance:  newBalance,
		Applied:  models.Round2(converted),
	}

	event, err := models.NewOutboxEvent(models.EventBalanceUpdated, userID, models.BalanceUpdatedPayload{
		UserID:    userID,
		Currency:  change.Currency,
		Balance:   change.Balance,
		Previous:  change.Previous,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err = l.outboxRepository.Enqueue(ctx, event); err != nil {
		return nil, fmt.Errorf("enqueue balance event: %w", err)
	}

	l.logger.Info().
		Str("user_id", userID).
		Str("operation", string(op)).
		Str("previous", change.Previous.StringFixed(models.MoneyPlaces)).
		Str("balance", change.Balance.StringFixed(models.MoneyPlaces)).
		Str("currency", change.Currency.String()).
		Msg("Balance adjusted")

	return change, nil
}

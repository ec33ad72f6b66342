package interactor

import (
	"context"
	"fmt"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/metrics"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Waker is poked after a commit that queued outbox events.
type Waker interface {
	Wake()
}

type SettlementResult struct {
	ID             string                 `json:"id"`
	Type           models.TransactionType `json:"type"`
	PreviousStatus models.Status          `json:"previousStatus"`
	Status         models.Status          `json:"status"`
	Effect         string                 `json:"effect"`
	Changes        []*BalanceChange       `json:"-"`
}

// Changed reports whether the status was actually written.
func (r *SettlementResult) Changed() bool {
	return r.PreviousStatus != r.Status
}

type SettlementInteractor struct {
	transactor        repositories.Transactor
	depositRepository repositories.DepositRepository
	orderRepository   repositories.OrderRepository
	userRepository    repositories.UserRepository
	outboxRepository  repositories.OutboxRepository
	ledger            *BalanceLedger
	waker             Waker
	logger            *zerolog.Logger
}

func NewSettlementInteractor(
	transactor repositories.Transactor,
	depositRepository repositories.DepositRepository,
	orderRepository repositories.OrderRepository,
	userRepository repositories.UserRepository,
	outboxRepository repositories.OutboxRepository,
	ledger *BalanceLedger,
	waker Waker,
) *SettlementInteractor {
	l := log.GetLogger()
	return &SettlementInteractor{
		transactor:        transactor,
		depositRepository: depositRepository,
		orderRepository:   orderRepository,
		userRepository:    userRepository,
		outboxRepository:  outboxRepository,
		ledger:            ledger,
		waker:             waker,
		logger:            &l,
	}
}

// UpdateSepaDepositStatus moves a deposit to status. Balance effects are applied
// only when the move crosses the settled boundary.
func (s *SettlementInteractor) UpdateSepaDepositStatus(ctx context.Context, id string, status models.Status) (*SettlementResult, error) {
	if !models.TransactionTypeSepa.ValidStatus(status) {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidStatus, fmt.Sprintf("%s: %q", apperrors.ErrInvalidStatus, status))
	}

	var result *SettlementResult
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		deposit, err := s.depositRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		result = &SettlementResult{
			ID:             deposit.ID,
			Type:           models.TransactionTypeSepa,
			PreviousStatus: deposit.Status,
			Status:         status,
			Effect:         metrics.EffectNone,
		}
		if !result.Changed() {
			return nil
		}

		completedAt, settled := deposit.CompletedAt, deposit.Settled
		switch {
		case !deposit.Status.Settled() && status.Settled():
			change, err := s.ledger.AdjustBalance(ctx, deposit.UserID, deposit.Amount, deposit.Currency, OperationAdd)
			if err != nil {
				return err
			}
			result.Changes = append(result.Changes, change)
			settled = change.Settlement()

			if deposit.HasContractorCommission() {
				change, err = s.ledger.AdjustBalance(ctx, *deposit.ContractorID, *deposit.ContractorCommission, deposit.Currency, OperationAdd)
				if err != nil {
					return err
				}
				result.Changes = append(result.Changes, change)
			}

			now := time.Now().UTC()
			completedAt = &now
			result.Effect = metrics.EffectCredit
		case deposit.Status.Settled() && !status.Settled():
			amount, currency := settledOr(deposit.Settled, deposit.Amount, deposit.Currency)
			change, err := s.ledger.AdjustBalance(ctx, deposit.UserID, amount, currency, OperationSubtract)
			if err != nil {
				return err
			}
			result.Changes = append(result.Changes, change)

			if deposit.HasContractorCommission() {
				s.logger.Warn().
					Str("deposit_id", deposit.ID).
					Str("contractor_id", *deposit.ContractorID).
					Str("commission", deposit.ContractorCommission.StringFixed(models.MoneyPlaces)).
					Msg("Contractor commission is not reversed")
				metrics.ContractorCommissionUnreversed.Inc()
			}

			completedAt, settled = nil, nil
			result.Effect = metrics.EffectReversal
		}

		if err = s.depositRepository.UpdateStatus(ctx, deposit.ID, status, completedAt, settled); err != nil {
			return err
		}

		note := &models.TransactionNotification{
			UserID:        deposit.UserID,
			Type:          models.TransactionTypeSepa,
			Amount:        deposit.Amount,
			Currency:      deposit.Currency,
			Status:        status,
			Reference:     deposit.Reference,
			InitialAmount: decimalPtr(deposit.InitialAmount()),
			Commission:    decimalPtr(deposit.CommissionFee),
		}
		return s.enqueueStatusEvents(ctx, result, note)
	})
	if err != nil {
		return nil, err
	}

	s.committed(result)
	return result, nil
}

// UpdateOrderStatus moves a USDT or USDC order to status. txHash is stored for USDC only.
func (s *SettlementInteractor) UpdateOrderStatus(ctx context.Context, asset models.TransactionType, id string, status models.Status, txHash *string) (*SettlementResult, error) {
	if !asset.IsOrder() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown order asset %q", asset))
	}
	if !asset.ValidStatus(status) {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidStatus, fmt.Sprintf("%s: %q", apperrors.ErrInvalidStatus, status))
	}
	if asset != models.TransactionTypeUsdc || (txHash != nil && *txHash == "") {
		txHash = nil
	}

	var result *SettlementResult
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepository.GetByIDForUpdate(ctx, asset, id)
		if err != nil {
			return err
		}

		result = &SettlementResult{
			ID:             order.ID,
			Type:           asset,
			PreviousStatus: order.Status,
			Status:         status,
			Effect:         metrics.EffectNone,
		}
		if !result.Changed() {
			return nil
		}

		completedAt, settled := order.CompletedAt, order.Settled
		switch {
		case !order.Status.Settled() && status.Settled():
			change, err := s.ledger.AdjustBalance(ctx, order.UserID, order.AmountUSD, models.USD, OperationSubtract)
			if err != nil {
				return err
			}
			result.Changes = append(result.Changes, change)
			settled = change.Settlement()

			now := time.Now().UTC()
			completedAt = &now
			result.Effect = metrics.EffectDebit
		case order.Status.Settled() && !status.Settled():
			amount, currency := settledOr(order.Settled, order.AmountUSD, models.USD)
			change, err := s.ledger.AdjustBalance(ctx, order.UserID, amount, currency, OperationAdd)
			if err != nil {
				return err
			}
			result.Changes = append(result.Changes, change)

			completedAt, settled = nil, nil
			result.Effect = metrics.EffectReversal
		}

		if err = s.orderRepository.UpdateStatus(ctx, asset, order.ID, status, completedAt, settled, txHash); err != nil {
			return err
		}

		note := &models.TransactionNotification{
			UserID:    order.UserID,
			Type:      asset,
			Amount:    order.AmountUSD,
			Currency:  models.USD,
			Status:    status,
			Reference: order.Reference,
		}
		return s.enqueueStatusEvents(ctx, result, note)
	})
	if err != nil {
		return nil, err
	}

	s.committed(result)
	return result, nil
}

// DeleteSepaDeposit removes a deposit that has not left the pending status.
func (s *SettlementInteractor) DeleteSepaDeposit(ctx context.Context, id string) error {
	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		deposit, err := s.depositRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if deposit.Status != models.StatusPending {
			return apperrors.NewValidationError(apperrors.CodeDepositNotPending, apperrors.ErrDepositNotPending)
		}
		return s.depositRepository.Delete(ctx, deposit.ID)
	})
}

func (s *SettlementInteractor) enqueueStatusEvents(ctx context.Context, result *SettlementResult, note *models.TransactionNotification) error {
	owner, err := s.userRepository.GetByID(ctx, note.UserID)
	if err != nil {
		return err
	}

	statusEvent, err := models.NewOutboxEvent(result.Type.StatusChangedEvent(), note.UserID, models.StatusChangedPayload{
		ID:             result.ID,
		UserID:         note.UserID,
		Type:           result.Type,
		Reference:      note.Reference,
		PreviousStatus: result.PreviousStatus,
		Status:         result.Status,
		Amount:         note.Amount,
		Currency:       note.Currency,
		UpdatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	events := []*models.OutboxEvent{statusEvent}

	if owner.HasReferralAttribution() {
		telegramEvent, err := models.NewOutboxEvent(models.EventTelegramTransaction, note.UserID, note)
		if err != nil {
			return err
		}
		events = append(events, telegramEvent)
	}

	if err = s.outboxRepository.Enqueue(ctx, events...); err != nil {
		return fmt.Errorf("enqueue status events: %w", err)
	}
	return nil
}

func (s *SettlementInteractor) committed(result *SettlementResult) {
	metrics.SettlementTransitions.WithLabelValues(string(result.Type), result.Effect).Inc()
	if !result.Changed() {
		s.logger.Info().Str("id", result.ID).Str("status", string(result.Status)).Msg("Status unchanged")
		return
	}

	s.logger.Info().
		Str("id", result.ID).
		Str("type", string(result.Type)).
		Str("from", string(result.PreviousStatus)).
		Str("to", string(result.Status)).
		Str("effect", result.Effect).
		Msg("Status updated")
	if s.waker != nil {
		s.waker.Wake()
	}
}

// settledOr returns the recorded balance effect, or the transaction amount for rows
// settled before effects were recorded.
func settledOr(settled *models.Settlement, amount decimal.Decimal, currency models.Currency) (decimal.Decimal, models.Currency) {
	if settled == nil {
		return amount, currency
	}
	return settled.Amount, settled.Currency
}

package interactor

import (
	"context"
	"fmt"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type OrderInteractor struct {
	orderRepository repositories.OrderRepository
	userRepository  repositories.UserRepository
	logger          *zerolog.Logger
}

func NewOrderInteractor(orderRepository repositories.OrderRepository, userRepository repositories.UserRepository) *OrderInteractor {
	l := log.GetLogger()
	return &OrderInteractor{
		orderRepository: orderRepository,
		userRepository:  userRepository,
		logger:          &l,
	}
}

// Create opens a processing order. The balance is debited when the order settles.
func (i *OrderInteractor) Create(ctx context.Context, userID string, asset models.TransactionType, dto *dtos.CreateOrderDTO) (*models.Order, error) {
	if !asset.IsOrder() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown order asset %q", asset))
	}
	if !dto.AmountUSD.IsPositive() {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidAmount, apperrors.ErrInvalidAmount)
	}

	user, err := i.userRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Asset:         asset,
		AmountUSD:     models.Round2(dto.AmountUSD),
		Status:        asset.InitialStatus(),
		Reference:     newReference(asset),
		WalletAddress: dto.WalletAddress,
		CreatedAt:     time.Now().UTC(),
	}
	if err = i.orderRepository.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	i.logger.Info().
		Str("order_id", order.ID).
		Str("asset", string(asset)).
		Str("user_id", user.ID).
		Str("amount_usd", order.AmountUSD.StringFixed(models.MoneyPlaces)).
		Msg("Order created")

	return order, nil
}

func (i *OrderInteractor) Get(ctx context.Context, asset models.TransactionType, id string) (*models.Order, error) {
	if !asset.IsOrder() {
		return nil, apperrors.NewNotFoundError("order", id)
	}
	return i.orderRepository.GetByID(ctx, asset, id)
}

package interactor

import (
	"context"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	"github.com/shopspring/decimal"
)

type UserInteractor struct {
	userRepository repositories.UserRepository
}

func NewUserInteractor(Repository repositories.UserRepository) *UserInteractor {
	return &UserInteractor{userRepository: Repository}
}

func (u *UserInteractor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.userRepository.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetBalance returns the balance and the currency it is held in.
func (u *UserInteractor) GetBalance(ctx context.Context, id string) (decimal.Decimal, models.Currency, error) {
	user, err := u.userRepository.GetByID(ctx, id)
	if err != nil {
		return decimal.Decimal{}, "", err
	}
	return user.Balance, user.BalanceCurrency, nil
}

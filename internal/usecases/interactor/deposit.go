package interactor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type DepositLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

type DepositInteractor struct {
	depositRepository repositories.DepositRepository
	userRepository    repositories.UserRepository
	calculator        *CommissionCalculator
	limits            DepositLimits
	logger            *zerolog.Logger
}

func NewDepositInteractor(depositRepository repositories.DepositRepository, userRepository repositories.UserRepository, calculator *CommissionCalculator, limits DepositLimits) *DepositInteractor {
	l := log.GetLogger()
	return &DepositInteractor{
		depositRepository: depositRepository,
		userRepository:    userRepository,
		calculator:        calculator,
		limits:            limits,
		logger:            &l,
	}
}

// Create registers a pending SEPA deposit. The stored amount is net of the platform commission
// and stays in the deposit currency until settlement.
func (i *DepositInteractor) Create(ctx context.Context, userID string, dto *dtos.CreateDepositDTO) (*models.SepaDeposit, *models.DepositCalculation, error) {
	currency, err := i.validate(dto.Amount, dto.Currency)
	if err != nil {
		return nil, nil, err
	}

	user, err := i.userRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	calc, err := i.calculator.CalculateDeposit(ctx, models.Round2(dto.Amount), currency, user.BalanceCurrency, referralCodeFor(user, dto.ReferralCode), nil)
	if err != nil {
		return nil, nil, err
	}

	deposit := &models.SepaDeposit{
		ID:                   uuid.NewString(),
		UserID:               user.ID,
		Amount:               calc.AmountAfterCommission,
		Currency:             currency,
		Status:               models.TransactionTypeSepa.InitialStatus(),
		CommissionFee:        calc.CommissionAmount,
		ContractorID:         calc.ContractorID,
		ContractorCommission: calc.ContractorCommission,
		ReferralCode:         calc.ReferralCode,
		Reference:            newReference(models.TransactionTypeSepa),
		CreatedAt:            time.Now().UTC(),
	}
	if err = i.depositRepository.Create(ctx, deposit); err != nil {
		return nil, nil, fmt.Errorf("create deposit: %w", err)
	}

	i.logger.Info().
		Str("deposit_id", deposit.ID).
		Str("user_id", user.ID).
		Str("amount", deposit.Amount.StringFixed(models.MoneyPlaces)).
		Str("currency", currency.String()).
		Msg("Deposit created")

	return deposit, calc, nil
}

// Calculate previews a deposit for the user without storing anything.
func (i *DepositInteractor) Calculate(ctx context.Context, userID string, amount decimal.Decimal, currencyCode string, referralCode *string) (*models.DepositCalculation, error) {
	currency, err := i.validate(amount, currencyCode)
	if err != nil {
		return nil, err
	}

	user, err := i.userRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return i.calculator.CalculateDeposit(ctx, models.Round2(amount), currency, user.BalanceCurrency, referralCodeFor(user, referralCode), nil)
}

func (i *DepositInteractor) Get(ctx context.Context, id string) (*models.SepaDeposit, error) {
	return i.depositRepository.GetByID(ctx, id)
}

func (i *DepositInteractor) validate(amount decimal.Decimal, currencyCode string) (models.Currency, error) {
	if amount.LessThan(i.limits.Min) || amount.GreaterThan(i.limits.Max) {
		return "", apperrors.NewValidationError(apperrors.CodeInvalidAmount, fmt.Sprintf("%s: must be between %s and %s",
			apperrors.ErrInvalidAmount, i.limits.Min.String(), i.limits.Max.String()))
	}

	currency, ok := models.ParseCurrency(currencyCode)
	if !ok {
		return "", apperrors.NewValidationError(apperrors.CodeInvalidCurrency, fmt.Sprintf("%s: %q", apperrors.ErrInvalidCurrency, currencyCode))
	}
	return currency, nil
}

// referralCodeFor prefers an explicit code over the user's own attribution.
func referralCodeFor(user *models.User, code *string) *string {
	if code != nil && strings.TrimSpace(*code) != "" {
		return code
	}
	return user.ReferredBy
}

func newReference(t models.TransactionType) string {
	return fmt.Sprintf("EVO-%s-%s", strings.ToUpper(string(t)), strings.ToUpper(uuid.NewString()[:8]))
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

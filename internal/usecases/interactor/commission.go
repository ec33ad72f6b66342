package interactor

import (
	"context"
	"strings"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// groupCodePrefix marks Telegram group codes, which never attribute a contractor.
const groupCodePrefix = "group"

var hundred = decimal.NewFromInt(100)

type CommissionSettings struct {
	Rates                models.CommissionRates
	FallbackReferralCode string
	FallbackContractorID string
}

type CommissionCalculator struct {
	userRepository repositories.UserRepository
	converter      *CurrencyConverter
	settings       CommissionSettings
	logger         *zerolog.Logger
}

func NewCommissionCalculator(userRepository repositories.UserRepository, converter *CurrencyConverter, settings CommissionSettings) *CommissionCalculator {
	l := log.GetLogger()
	return &CommissionCalculator{
		userRepository: userRepository,
		converter:      converter,
		settings:       settings,
		logger:         &l,
	}
}

func (c *CommissionCalculator) Rates() models.CommissionRates {
	return c.settings.Rates
}

// PlatformCommission is the flat platform share of a gross amount, rounded to cents.
func (c *CommissionCalculator) PlatformCommission(gross decimal.Decimal) decimal.Decimal {
	return models.Round2(gross.Mul(c.settings.Rates.Platform))
}

// CalculateDeposit breaks a gross deposit down into commissions and the amount
// credited in the target currency. Conversion happens after the platform share is deducted.
func (c *CommissionCalculator) CalculateDeposit(ctx context.Context, gross decimal.Decimal, from, to models.Currency, referralCode, directContractorID *string) (*models.DepositCalculation, error) {
	if !from.Supported() || !to.Supported() {
		return nil, apperrors.NewUnsupportedCurrencyPairError(from.String(), to.String())
	}

	calc := &models.DepositCalculation{
		OriginalAmount: gross,
		FromCurrency:   from,
		ToCurrency:     to,
	}

	if contractor, code := c.resolveContractor(ctx, referralCode, directContractorID); contractor != nil {
		rate := contractor.ContractorCommissionRate
		if !rate.IsPositive() {
			rate = c.settings.Rates.Contractor
		}
		commission := models.Round2(gross.Mul(rate).Div(hundred))
		id := contractor.ID
		calc.ContractorCommission = &commission
		calc.ContractorID = &id
		if code != "" {
			calc.ReferralCode = &code
		}
	}

	calc.CommissionAmount = c.PlatformCommission(gross)
	calc.AmountAfterCommission = models.Round2(gross.Sub(calc.CommissionAmount))

	rate, err := c.converter.Rate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	calc.ExchangeRate = rate
	calc.ConvertedAmount = models.Round2(calc.AmountAfterCommission.Mul(rate))

	return calc, nil
}

// resolveContractor never fails: an unresolvable contractor only means no contractor commission.
func (c *CommissionCalculator) resolveContractor(ctx context.Context, referralCode, directContractorID *string) (*models.User, string) {
	if directContractorID != nil && *directContractorID != "" {
		user, err := c.userRepository.GetByID(ctx, *directContractorID)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("contractor_id", *directContractorID).Msg("Contractor lookup failed, ignoring contractor id")
		case !user.IsContractor:
			c.logger.Warn().Str("contractor_id", *directContractorID).Msg("User is not a contractor, ignoring contractor id")
		default:
			code := ""
			if user.ReferralCode != nil {
				code = *user.ReferralCode
			}
			return user, code
		}
	}

	if referralCode == nil {
		return nil, ""
	}
	code := strings.TrimSpace(*referralCode)
	if code == "" || strings.HasPrefix(strings.ToLower(code), groupCodePrefix) {
		return nil, ""
	}

	if c.settings.FallbackReferralCode != "" && strings.EqualFold(code, c.settings.FallbackReferralCode) {
		user, err := c.userRepository.GetByID(ctx, c.settings.FallbackContractorID)
		if err != nil || !user.IsContractor {
			c.logger.Error().Err(err).
				Str("contractor_id", c.settings.FallbackContractorID).
				Str("referral_code", code).
				Msg("Fallback contractor is not available")
			return nil, ""
		}
		return user, code
	}

	user, err := c.userRepository.GetByReferralCode(ctx, code)
	if err != nil {
		c.logger.Warn().Err(err).Str("referral_code", code).Msg("Referral code lookup failed")
		return nil, ""
	}
	if user == nil || !user.IsContractor {
		return nil, ""
	}
	return user, code
}

package interactor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/rs/zerolog"
)

const (
	ReasonBotDisabled = "telegram bot is not configured"
	ReasonNoChat      = "no chat configured for user"
)

type NotifyResult struct {
	Delivered bool
	ChatID    int64
	Reason    string
}

type TelegramNotificationInteractor struct {
	userRepository  repositories.UserRepository
	groupRepository repositories.TelegramGroupRepository
	sender          MessageSender
	adminChatID     int64
	logger          *zerolog.Logger
}

// NewTelegramNotificationInteractor accepts a nil sender when no bot token is configured.
func NewTelegramNotificationInteractor(userRepository repositories.UserRepository, groupRepository repositories.TelegramGroupRepository, sender MessageSender, adminChatID int64) *TelegramNotificationInteractor {
	l := log.GetLogger()
	return &TelegramNotificationInteractor{
		userRepository:  userRepository,
		groupRepository: groupRepository,
		sender:          sender,
		adminChatID:     adminChatID,
		logger:          &l,
	}
}

// Notify posts a transaction summary to the chat of the user's referral group,
// falling back to the admin chat.
func (i *TelegramNotificationInteractor) Notify(ctx context.Context, note *models.TransactionNotification) (*NotifyResult, error) {
	if i.sender == nil {
		i.logger.Debug().Str("reference", note.Reference).Msg("Telegram notification skipped, bot disabled")
		return &NotifyResult{Reason: ReasonBotDisabled}, nil
	}

	user, err := i.userRepository.GetByID(ctx, note.UserID)
	if err != nil {
		return nil, err
	}

	chatID, err := i.chatFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if chatID == 0 {
		i.logger.Warn().Str("user_id", user.ID).Msg("Telegram notification skipped, no chat")
		return &NotifyResult{Reason: ReasonNoChat}, nil
	}

	if err = i.sender.SendMessage(ctx, chatID, FormatTransactionMessage(user, note)); err != nil {
		return nil, fmt.Errorf("send telegram message: %w", err)
	}

	i.logger.Info().Int64("chat_id", chatID).Str("reference", note.Reference).Msg("Telegram notification sent")
	return &NotifyResult{Delivered: true, ChatID: chatID}, nil
}

func (i *TelegramNotificationInteractor) chatFor(ctx context.Context, user *models.User) (int64, error) {
	if user.HasReferralAttribution() {
		chatID, ok, err := i.groupRepository.ChatIDByReferralCode(ctx, *user.ReferredBy)
		if err != nil {
			return 0, fmt.Errorf("telegram group lookup: %w", err)
		}
		if ok {
			return chatID, nil
		}
	}
	return i.adminChatID, nil
}

var transactionTitles = map[models.TransactionType]string{
	models.TransactionTypeSepa: "SEPA deposit",
	models.TransactionTypeUsdt: "USDT order",
	models.TransactionTypeUsdc: "USDC order",
}

// FormatTransactionMessage renders the plain text chat message for a transaction.
func FormatTransactionMessage(user *models.User, note *models.TransactionNotification) string {
	title, ok := transactionTitles[note.Type]
	if !ok {
		title = strings.ToUpper(string(note.Type))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", title, note.Status)
	fmt.Fprintf(&b, "Reference: %s\n", note.Reference)
	if user.Username != "" {
		fmt.Fprintf(&b, "User: %s", user.Username)
		if user.Email != "" {
			fmt.Fprintf(&b, " (%s)", user.Email)
		}
		b.WriteString("\n")
	}
	if note.InitialAmount != nil {
		fmt.Fprintf(&b, "Initial amount: %s %s\n", note.InitialAmount.StringFixed(models.MoneyPlaces), note.Currency)
	}
	if note.Commission != nil {
		fmt.Fprintf(&b, "Commission: %s %s\n", note.Commission.StringFixed(models.MoneyPlaces), note.Currency)
	}
	fmt.Fprintf(&b, "Amount: %s %s", note.Amount.StringFixed(models.MoneyPlaces), note.Currency)

	return b.String()
}

package interactor

import (
	"context"
	"errors"
	"testing"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	repomocks "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories/mocks"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func sepaNote() *models.TransactionNotification {
	return &models.TransactionNotification{
		UserID:        "u1",
		Type:          models.TransactionTypeSepa,
		Amount:        dec("450"),
		Currency:      models.EUR,
		Status:        models.StatusSuccessful,
		Reference:     "EVO-SEPA-1234ABCD",
		InitialAmount: decimalPtr(dec("500")),
		Commission:    decimalPtr(dec("50")),
	}
}

func TestTelegramNotify(t *testing.T) {
	referred := &models.User{ID: "u1", Username: "anna", Email: "anna@example.com", ReferredBy: strPtr("ALPHA1")}

	testCases := []struct {
		name       string
		adminChat  int64
		setupMocks func(users *repomocks.MockUserRepository, groups *repomocks.MockTelegramGroupRepository, sender *mocks.MockMessageSender)
		want       *NotifyResult
		wantErr    bool
	}{
		{
			name:      "referral_group_chat",
			adminChat: -100,
			setupMocks: func(users *repomocks.MockUserRepository, groups *repomocks.MockTelegramGroupRepository, sender *mocks.MockMessageSender) {
				users.EXPECT().GetByID(gomock.Any(), "u1").Return(referred, nil)
				groups.EXPECT().ChatIDByReferralCode(gomock.Any(), "ALPHA1").Return(int64(-42), true, nil)
				sender.EXPECT().SendMessage(gomock.Any(), int64(-42), gomock.Any()).Return(nil)
			},
			want: &NotifyResult{Delivered: true, ChatID: -42},
		},
		{
			name:      "admin_chat_fallback",
			adminChat: -100,
			setupMocks: func(users *repomocks.MockUserRepository, groups *repomocks.MockTelegramGroupRepository, sender *mocks.MockMessageSender) {
				users.EXPECT().GetByID(gomock.Any(), "u1").Return(referred, nil)
				groups.EXPECT().ChatIDByReferralCode(gomock.Any(), "ALPHA1").Return(int64(0), false, nil)
				sender.EXPECT().SendMessage(gomock.Any(), int64(-100), gomock.Any()).Return(nil)
			},
			want: &NotifyResult{Delivered: true, ChatID: -100},
		},
		{
			name: "no_chat",
			setupMocks: func(users *repomocks.MockUserRepository, _ *repomocks.MockTelegramGroupRepository, _ *mocks.MockMessageSender) {
				users.EXPECT().GetByID(gomock.Any(), "u1").Return(&models.User{ID: "u1"}, nil)
			},
			want: &NotifyResult{Reason: ReasonNoChat},
		},
		{
			name:      "send_failure",
			adminChat: -100,
			setupMocks: func(users *repomocks.MockUserRepository, _ *repomocks.MockTelegramGroupRepository, sender *mocks.MockMessageSender) {
				users.EXPECT().GetByID(gomock.Any(), "u1").Return(&models.User{ID: "u1"}, nil)
				sender.EXPECT().SendMessage(gomock.Any(), int64(-100), gomock.Any()).Return(errors.New("429 too many requests"))
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := repomocks.NewMockUserRepository(ctrl)
			groups := repomocks.NewMockTelegramGroupRepository(ctrl)
			sender := mocks.NewMockMessageSender(ctrl)
			tc.setupMocks(users, groups, sender)

			got, err := NewTelegramNotificationInteractor(users, groups, sender, tc.adminChat).Notify(context.Background(), sepaNote())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTelegramNotifyWithoutBot(t *testing.T) {
	ctrl := gomock.NewController(t)
	got, err := NewTelegramNotificationInteractor(repomocks.NewMockUserRepository(ctrl), repomocks.NewMockTelegramGroupRepository(ctrl), nil, -100).
		Notify(context.Background(), sepaNote())

	require.NoError(t, err)
	assert.False(t, got.Delivered)
	assert.Equal(t, ReasonBotDisabled, got.Reason)
}

func TestFormatTransactionMessage(t *testing.T) {
	user := &models.User{ID: "u1", Username: "anna", Email: "anna@example.com"}

	want := "SEPA deposit successful\n" +
		"Reference: EVO-SEPA-1234ABCD\n" +
		"User: anna (anna@example.com)\n" +
		"Initial amount: 500.00 EUR\n" +
		"Commission: 50.00 EUR\n" +
		"Amount: 450.00 EUR"
	assert.Equal(t, want, FormatTransactionMessage(user, sepaNote()))

	order := &models.TransactionNotification{Type: models.TransactionTypeUsdc, Amount: dec("12.5"), Currency: models.USD, Status: models.StatusCompleted, Reference: "R"}
	assert.Equal(t, "USDC order completed\nReference: R\nAmount: 12.50 USD", FormatTransactionMessage(&models.User{}, order))
}

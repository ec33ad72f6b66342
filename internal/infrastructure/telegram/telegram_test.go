package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
)

func notificationEvent(t *testing.T) *models.OutboxEvent {
	t.Helper()
	event, err := models.NewOutboxEvent(models.EventTelegramTransaction, "u1", &models.TransactionNotification{
		UserID:    "u1",
		Type:      models.TransactionTypeSepa,
		Amount:    decimal.NewFromInt(450),
		Currency:  models.EUR,
		Status:    models.StatusSuccessful,
		Reference: "EVO-SEPA-1234ABCD",
	})
	require.NoError(t, err)
	return event
}

func TestNotifyClient_Deliver(t *testing.T) {
	var gotToken, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(InternalTokenHeader)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewNotifyClient(srv.Client(), NotifySettings{URL: srv.URL, Token: "s3cret", BreakerTimeout: time.Minute})
	event := notificationEvent(t)
	require.NoError(t, client.Deliver(context.Background(), event))

	assert.Equal(t, "s3cret", gotToken)
	assert.JSONEq(t, string(event.Payload), gotBody)
}

func TestNotifyClient_DeliverRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewNotifyClient(srv.Client(), NotifySettings{URL: srv.URL, BreakerTimeout: time.Minute})
	err := client.Deliver(context.Background(), notificationEvent(t))
	assert.ErrorIs(t, err, ErrNotifyRejected)
}

func TestNotifyClient_DeliverWrongEventType(t *testing.T) {
	client := NewNotifyClient(http.DefaultClient, NotifySettings{URL: "http://127.0.0.1:1"})
	event, err := models.NewOutboxEvent(models.EventBalanceUpdated, "u1", struct{}{})
	require.NoError(t, err)
	assert.Error(t, client.Deliver(context.Background(), event))
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestBot_SendMessage(t *testing.T) {
	sender := &fakeSender{}
	bot := NewBotWithSender(sender, 0)

	require.NoError(t, bot.SendMessage(context.Background(), -100123, "hello"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(-100123), sender.sent[0].ChatID)
	assert.Equal(t, "hello", sender.sent[0].Text)

	sender.err = errors.New("chat not found")
	assert.Error(t, bot.SendMessage(context.Background(), 1, "x"))
}

func TestBot_SendMessageHonorsContext(t *testing.T) {
	bot := NewBotWithSender(&fakeSender{}, 0.001)
	require.NoError(t, bot.SendMessage(context.Background(), 1, "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, bot.SendMessage(ctx, 1, "second"))
}

package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/db_client"
)

type TelegramGroupRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewTelegramGroupRepositoryImpl(db *pgxpool.Pool) repositories.TelegramGroupRepository {
	return &TelegramGroupRepositoryImpl{db: db}
}

func (r *TelegramGroupRepositoryImpl) ChatIDByReferralCode(ctx context.Context, code string) (int64, bool, error) {
	var chatID int64
	err := db_client.Conn(ctx, r.db).QueryRow(
		ctx,
		"SELECT chat_id FROM telegram_groups WHERE UPPER(referral_code) = UPPER($1)",
		code,
	).Scan(&chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return chatID, true, nil
}

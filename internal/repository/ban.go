package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"live_rooms/internal/domain"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

type BanRepository interface {
	Upsert(ctx context.Context, ban *domain.Ban) error
	GetActive(ctx context.Context, roomID, userID uuid.UUID) (*domain.Ban, error)
}

type banRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewBanRepository(db *pgxpool.Pool, log logger.Logger) BanRepository {
	return &banRepository{db: db, log: log}
}

// Upsert перезаписывает текущий бан пары (room, user) — повторный бан
// обновляет единственную строку, а не добавляет новую.
func (r *banRepository) Upsert(ctx context.Context, ban *domain.Ban) error {
	query := `
		INSERT INTO room_bans (room_id, user_id, banned_by, reason, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (room_id, user_id)
		DO UPDATE SET banned_by = $3, reason = $4, expires_at = $5, updated_at = $6
	`

	_, err := r.db.Exec(ctx, query,
		ban.RoomID, ban.UserID, ban.BannedBy, ban.Reason, ban.ExpiresAt, time.Now(),
	)

	if err != nil {
		r.log.Error("Failed to upsert ban", "error", err)
		return fmt.Errorf("%w: upsert ban", apperrors.ErrInternal)
	}

	return nil
}

// GetActive возвращает (nil, nil), если бана нет или его срок истёк.
// Истечение проверяется лениво, просроченные строки не подметаются.
func (r *banRepository) GetActive(ctx context.Context, roomID, userID uuid.UUID) (*domain.Ban, error) {
	query := `
		SELECT room_id, user_id, banned_by, reason, expires_at, created_at, updated_at
		FROM room_bans
		WHERE room_id = $1 AND user_id = $2
		  AND (expires_at IS NULL OR expires_at > now())
	`

	ban := &domain.Ban{}
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(
		&ban.RoomID, &ban.UserID, &ban.BannedBy, &ban.Reason, &ban.ExpiresAt,
		&ban.CreatedAt, &ban.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get active ban", "error", err)
		return nil, fmt.Errorf("%w: get ban", apperrors.ErrInternal)
	}

	return ban, nil
}

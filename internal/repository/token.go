package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"live_rooms/internal/domain"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

type TokenRepository interface {
	// IssueExclusive в одной транзакции отзывает все живые токены пары
	// (room, user) и вставляет новый — двух одновременно живых токенов
	// после коммита быть не может.
	IssueExclusive(ctx context.Context, token *domain.RoomToken) error
	GetByJTI(ctx context.Context, jti uuid.UUID) (*domain.RoomToken, error)
	GetLatestLive(ctx context.Context, roomID, userID uuid.UUID) (*domain.RoomToken, error)
	RevokeAllLive(ctx context.Context, roomID, userID uuid.UUID) (int64, error)
}

type tokenRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewTokenRepository(db *pgxpool.Pool, log logger.Logger) TokenRepository {
	return &tokenRepository{db: db, log: log}
}

const revokeLiveQuery = `
	UPDATE room_tokens
	SET revoked_at = now()
	WHERE room_id = $1 AND user_id = $2 AND revoked_at IS NULL AND expires_at > now()
`

func (r *tokenRepository) IssueExclusive(ctx context.Context, token *domain.RoomToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin token transaction", "error", err)
		return fmt.Errorf("%w: issue token", apperrors.ErrInternal)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, revokeLiveQuery, token.RoomID, token.UserID); err != nil {
		r.log.Error("Failed to revoke prior tokens", "error", err)
		return fmt.Errorf("%w: revoke prior tokens", apperrors.ErrInternal)
	}

	insertQuery := `
		INSERT INTO room_tokens (jti, room_id, user_id, seq, issued_at, expires_at)
		VALUES ($1, $2, $3, nextval('room_clock_seq'), $4, $5)
		RETURNING seq
	`
	err = tx.QueryRow(ctx, insertQuery,
		token.JTI, token.RoomID, token.UserID, token.IssuedAt, token.ExpiresAt,
	).Scan(&token.Seq)
	if err != nil {
		r.log.Error("Failed to insert token", "error", err)
		return fmt.Errorf("%w: insert token", apperrors.ErrInternal)
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit token transaction", "error", err)
		return fmt.Errorf("%w: issue token", apperrors.ErrInternal)
	}

	return nil
}

// GetByJTI возвращает (nil, nil), если токен с таким jti не выдавался.
func (r *tokenRepository) GetByJTI(ctx context.Context, jti uuid.UUID) (*domain.RoomToken, error) {
	query := `
		SELECT jti, room_id, user_id, seq, issued_at, expires_at, revoked_at
		FROM room_tokens
		WHERE jti = $1
	`

	token := &domain.RoomToken{}
	err := r.db.QueryRow(ctx, query, jti).Scan(
		&token.JTI, &token.RoomID, &token.UserID, &token.Seq,
		&token.IssuedAt, &token.ExpiresAt, &token.RevokedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get token by JTI", "error", err)
		return nil, fmt.Errorf("%w: get token", apperrors.ErrInternal)
	}

	return token, nil
}

// GetLatestLive возвращает (nil, nil), если живого токена у пары нет.
func (r *tokenRepository) GetLatestLive(ctx context.Context, roomID, userID uuid.UUID) (*domain.RoomToken, error) {
	query := `
		SELECT jti, room_id, user_id, seq, issued_at, expires_at, revoked_at
		FROM room_tokens
		WHERE room_id = $1 AND user_id = $2 AND revoked_at IS NULL AND expires_at > now()
		ORDER BY seq DESC
		LIMIT 1
	`

	token := &domain.RoomToken{}
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(
		&token.JTI, &token.RoomID, &token.UserID, &token.Seq,
		&token.IssuedAt, &token.ExpiresAt, &token.RevokedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get latest live token", "error", err)
		return nil, fmt.Errorf("%w: get token", apperrors.ErrInternal)
	}

	return token, nil
}

func (r *tokenRepository) RevokeAllLive(ctx context.Context, roomID, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, revokeLiveQuery, roomID, userID)
	if err != nil {
		r.log.Error("Failed to revoke tokens", "error", err)
		return 0, fmt.Errorf("%w: revoke tokens", apperrors.ErrInternal)
	}

	return tag.RowsAffected(), nil
}

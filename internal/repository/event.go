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

type EventRepository interface {
	Append(ctx context.Context, event *domain.RoomEvent) error
	// GetLatestModeration — самое свежее событие kick/ban/eject,
	// адресованное пользователю в комнате; (nil, nil), если таких нет.
	GetLatestModeration(ctx context.Context, roomID, targetUserID uuid.UUID) (*domain.RoomEvent, error)
}

type eventRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewEventRepository(db *pgxpool.Pool, log logger.Logger) EventRepository {
	return &eventRepository{db: db, log: log}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.RoomEvent) error {
	query := `
		INSERT INTO room_events (room_id, seq, event_type, actor_user_id, target_user_id, payload, created_at)
		VALUES ($1, nextval('room_clock_seq'), $2, $3, $4, $5, $6)
		RETURNING id, seq
	`

	err := r.db.QueryRow(ctx, query,
		event.RoomID, event.EventType, event.ActorUserID, event.TargetUserID,
		event.Payload, event.CreatedAt,
	).Scan(&event.ID, &event.Seq)

	if err != nil {
		r.log.Error("Failed to append room event", "error", err)
		return fmt.Errorf("%w: append event", apperrors.ErrInternal)
	}

	return nil
}

func (r *eventRepository) GetLatestModeration(ctx context.Context, roomID, targetUserID uuid.UUID) (*domain.RoomEvent, error) {
	query := `
		SELECT id, room_id, seq, event_type, actor_user_id, target_user_id, payload, created_at
		FROM room_events
		WHERE room_id = $1 AND target_user_id = $2 AND event_type = ANY($3)
		ORDER BY seq DESC
		LIMIT 1
	`

	types := make([]string, 0, len(domain.ModerationEventTypes))
	for _, t := range domain.ModerationEventTypes {
		types = append(types, string(t))
	}

	event := &domain.RoomEvent{}
	err := r.db.QueryRow(ctx, query, roomID, targetUserID, types).Scan(
		&event.ID, &event.RoomID, &event.Seq, &event.EventType,
		&event.ActorUserID, &event.TargetUserID, &event.Payload, &event.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get latest moderation event", "error", err)
		return nil, fmt.Errorf("%w: get moderation event", apperrors.ErrInternal)
	}

	return event, nil
}

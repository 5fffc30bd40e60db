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

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RoomStatus) error
	CreateMembership(ctx context.Context, m *domain.Membership) error
	GetMembership(ctx context.Context, roomID, userID uuid.UUID) (*domain.Membership, error)
	UpdateMembership(ctx context.Context, m *domain.Membership) error
	ListActiveMembers(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error)
}

type roomRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRoomRepository(db *pgxpool.Pool, log logger.Logger) RoomRepository {
	return &roomRepository{db: db, log: log}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (id, livekit_room_name, host_user_id, title, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		room.ID, room.LiveKitRoomName, room.HostUserID, room.Title, room.Status,
		room.CreatedAt, room.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create room", "error", err)
		return fmt.Errorf("%w: create room", apperrors.ErrInternal)
	}

	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	query := `
		SELECT id, livekit_room_name, host_user_id, title, status, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	room := &domain.Room{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&room.ID, &room.LiveKitRoomName, &room.HostUserID, &room.Title, &room.Status,
		&room.CreatedAt, &room.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: room %s", apperrors.ErrNotFound, id)
		}
		r.log.Error("Failed to get room by ID", "error", err)
		return nil, fmt.Errorf("%w: get room", apperrors.ErrInternal)
	}

	return room, nil
}

func (r *roomRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RoomStatus) error {
	query := `UPDATE rooms SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		r.log.Error("Failed to update room status", "error", err)
		return fmt.Errorf("%w: update room status", apperrors.ErrInternal)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: room %s", apperrors.ErrNotFound, id)
	}

	return nil
}

func (r *roomRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO room_memberships (id, room_id, user_id, role, status, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.RoomID, m.UserID, m.Role, m.Status, m.JoinedAt, m.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create membership", "error", err)
		return fmt.Errorf("%w: create membership", apperrors.ErrInternal)
	}

	return nil
}

// GetMembership возвращает (nil, nil), если строки для пары нет.
func (r *roomRepository) GetMembership(ctx context.Context, roomID, userID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT id, room_id, user_id, role, status, joined_at, updated_at
		FROM room_memberships
		WHERE room_id = $1 AND user_id = $2
	`

	m := &domain.Membership{}
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(
		&m.ID, &m.RoomID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get membership", "error", err)
		return nil, fmt.Errorf("%w: get membership", apperrors.ErrInternal)
	}

	return m, nil
}

func (r *roomRepository) UpdateMembership(ctx context.Context, m *domain.Membership) error {
	query := `
		UPDATE room_memberships
		SET role = $3, status = $4, updated_at = $5
		WHERE room_id = $1 AND user_id = $2
	`

	tag, err := r.db.Exec(ctx, query, m.RoomID, m.UserID, m.Role, m.Status, time.Now())
	if err != nil {
		r.log.Error("Failed to update membership", "error", err)
		return fmt.Errorf("%w: update membership", apperrors.ErrInternal)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: membership", apperrors.ErrNotFound)
	}

	return nil
}

func (r *roomRepository) ListActiveMembers(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT id, room_id, user_id, role, status, joined_at, updated_at
		FROM room_memberships
		WHERE room_id = $1 AND status = $2
		ORDER BY joined_at ASC
	`

	rows, err := r.db.Query(ctx, query, roomID, domain.MembershipStatusActive)
	if err != nil {
		r.log.Error("Failed to list members", "error", err)
		return nil, fmt.Errorf("%w: list members", apperrors.ErrInternal)
	}
	defer rows.Close()

	var members []*domain.Membership
	for rows.Next() {
		m := &domain.Membership{}
		err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt, &m.UpdatedAt)
		if err != nil {
			r.log.Error("Failed to scan membership", "error", err)
			return nil, fmt.Errorf("%w: scan membership", apperrors.ErrInternal)
		}
		members = append(members, m)
	}

	return members, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"live_rooms/internal/domain"
	"live_rooms/internal/repository"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

type RoomService interface {
	Create(ctx context.Context, hostUserID uuid.UUID, title string) (*domain.Room, error)
	GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	Join(ctx context.Context, roomID, userID uuid.UUID, role domain.Role) (*domain.Membership, error)
	Leave(ctx context.Context, roomID, userID uuid.UUID) error
	Close(ctx context.Context, roomID, userID uuid.UUID) error
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error)
}

type roomService struct {
	roomRepo  repository.RoomRepository
	banRepo   repository.BanRepository
	tokenRepo repository.TokenRepository
	events    EventService
	log       logger.Logger
}

func NewRoomService(
	roomRepo repository.RoomRepository,
	banRepo repository.BanRepository,
	tokenRepo repository.TokenRepository,
	events EventService,
	log logger.Logger,
) RoomService {
	return &roomService{
		roomRepo:  roomRepo,
		banRepo:   banRepo,
		tokenRepo: tokenRepo,
		events:    events,
		log:       log,
	}
}

func (s *roomService) Create(ctx context.Context, hostUserID uuid.UUID, title string) (*domain.Room, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	now := time.Now()
	room := &domain.Room{
		ID:              uuid.New(),
		LiveKitRoomName: uuid.New().String(),
		HostUserID:      hostUserID,
		Title:           title,
		Status:          domain.RoomStatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	// Единственный host комнаты — её создатель
	membership := &domain.Membership{
		ID:        uuid.New(),
		RoomID:    room.ID,
		UserID:    hostUserID,
		Role:      domain.RoleHost,
		Status:    domain.MembershipStatusActive,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	if err := s.roomRepo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:      room.ID,
		EventType:   domain.EventTypeRoomCreated,
		ActorUserID: &hostUserID,
		Payload:     map[string]interface{}{"title": title},
		CreatedAt:   now,
	}); err != nil {
		s.log.Warn("Failed to append room_created event", "room_id", room.ID, "error", err)
	}

	return room, nil
}

func (s *roomService) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	return s.roomRepo.GetByID(ctx, roomID)
}

func (s *roomService) Join(ctx context.Context, roomID, userID uuid.UUID, role domain.Role) (*domain.Membership, error) {
	if role != domain.RoleSpeaker && role != domain.RoleListener {
		return nil, fmt.Errorf("%w: join role must be speaker or listener", apperrors.ErrValidation)
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != domain.RoomStatusOpen {
		return nil, fmt.Errorf("%w: room is closed", apperrors.ErrConflict)
	}

	ban, err := s.banRepo.GetActive(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if ban != nil {
		return nil, fmt.Errorf("%w: user is banned", apperrors.ErrForbidden)
	}

	now := time.Now()
	membership, err := s.roomRepo.GetMembership(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case membership == nil:
		membership = &domain.Membership{
			ID:        uuid.New(),
			RoomID:    roomID,
			UserID:    userID,
			Role:      role,
			Status:    domain.MembershipStatusActive,
			JoinedAt:  now,
			UpdatedAt: now,
		}
		if err := s.roomRepo.CreateMembership(ctx, membership); err != nil {
			return nil, err
		}
	case membership.Status == domain.MembershipStatusActive:
		// Уже в комнате
		return membership, nil
	case membership.Status == domain.MembershipStatusBanned:
		return nil, fmt.Errorf("%w: user is banned", apperrors.ErrForbidden)
	default:
		// left и kicked возвращаются в комнату: kick выкидывает из
		// текущей сессии, но не запрещает будущие
		membership.Role = role
		membership.Status = domain.MembershipStatusActive
		if err := s.roomRepo.UpdateMembership(ctx, membership); err != nil {
			return nil, err
		}
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:      roomID,
		EventType:   domain.EventTypeMemberJoined,
		ActorUserID: &userID,
		Payload:     map[string]interface{}{"role": string(role)},
		CreatedAt:   now,
	}); err != nil {
		s.log.Warn("Failed to append member_joined event", "room_id", roomID, "error", err)
	}

	return membership, nil
}

func (s *roomService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	membership, err := s.roomRepo.GetMembership(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if membership == nil || membership.Status != domain.MembershipStatusActive {
		return fmt.Errorf("%w: no active membership", apperrors.ErrNotFound)
	}

	membership.Status = domain.MembershipStatusLeft
	if err := s.roomRepo.UpdateMembership(ctx, membership); err != nil {
		return err
	}

	if _, err := s.tokenRepo.RevokeAllLive(ctx, roomID, userID); err != nil {
		s.log.Warn("Failed to revoke tokens on leave", "room_id", roomID, "user_id", userID, "error", err)
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:      roomID,
		EventType:   domain.EventTypeMemberLeft,
		ActorUserID: &userID,
		CreatedAt:   time.Now(),
	}); err != nil {
		s.log.Warn("Failed to append member_left event", "room_id", roomID, "error", err)
	}

	return nil
}

func (s *roomService) Close(ctx context.Context, roomID, userID uuid.UUID) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.HostUserID != userID {
		return fmt.Errorf("%w: only host can close the room", apperrors.ErrForbidden)
	}
	if room.Status == domain.RoomStatusClosed {
		return nil
	}

	if err := s.roomRepo.UpdateStatus(ctx, roomID, domain.RoomStatusClosed); err != nil {
		return err
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:      roomID,
		EventType:   domain.EventTypeRoomClosed,
		ActorUserID: &userID,
		CreatedAt:   time.Now(),
	}); err != nil {
		s.log.Warn("Failed to append room_closed event", "room_id", roomID, "error", err)
	}

	return nil
}

func (s *roomService) ListMembers(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.roomRepo.ListActiveMembers(ctx, roomID)
}

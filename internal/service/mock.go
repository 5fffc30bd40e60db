package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"live_rooms/internal/domain"
)

type MockMediaAdapter struct {
	mock.Mock
}

func (m *MockMediaAdapter) CreatePeer(ctx context.Context, externalRoom string, userID uuid.UUID, role domain.Role) (string, string, error) {
	args := m.Called(ctx, externalRoom, userID, role)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockMediaAdapter) RemovePeer(ctx context.Context, externalRoom string, peerID string) error {
	args := m.Called(ctx, externalRoom, peerID)
	return args.Error(0)
}

func (m *MockMediaAdapter) ListPeers(ctx context.Context, externalRoom string) ([]Peer, error) {
	args := m.Called(ctx, externalRoom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Peer), args.Error(1)
}

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Append(ctx context.Context, event *domain.RoomEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventService) GetLatestModeration(ctx context.Context, roomID, targetUserID uuid.UUID) (*domain.RoomEvent, error) {
	args := m.Called(ctx, roomID, targetUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomEvent), args.Error(1)
}

func (m *MockEventService) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan *domain.RoomEvent, func(), error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan *domain.RoomEvent), args.Get(1).(func()), args.Error(2)
}

type MockRateLimitService struct {
	mock.Mock
}

func (m *MockRateLimitService) CheckLimit(ctx context.Context, userID uuid.UUID, action string, roomID uuid.UUID, limit int, windowSeconds int) (bool, error) {
	args := m.Called(ctx, userID, action, roomID, limit, windowSeconds)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimitService) RecordAttempt(ctx context.Context, userID uuid.UUID, action string, roomID uuid.UUID, windowSeconds int) error {
	args := m.Called(ctx, userID, action, roomID, windowSeconds)
	return args.Error(0)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) IssueOrRefreshToken(ctx context.Context, roomID, requesterID uuid.UUID, presentedJTI *uuid.UUID) (*TokenGrant, error) {
	args := m.Called(ctx, roomID, requesterID, presentedJTI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TokenGrant), args.Error(1)
}

func (m *MockSessionService) ModerateMember(ctx context.Context, roomID, actorID, targetID uuid.UUID, action domain.ModerationAction, reason *string, banDurationMinutes *int) (*ModerationResult, error) {
	args := m.Called(ctx, roomID, actorID, targetID, action, reason, banDurationMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ModerationResult), args.Error(1)
}

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) Create(ctx context.Context, hostUserID uuid.UUID, title string) (*domain.Room, error) {
	args := m.Called(ctx, hostUserID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomService) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomService) Join(ctx context.Context, roomID, userID uuid.UUID, role domain.Role) (*domain.Membership, error) {
	args := m.Called(ctx, roomID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Membership), args.Error(1)
}

func (m *MockRoomService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockRoomService) Close(ctx context.Context, roomID, userID uuid.UUID) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockRoomService) ListMembers(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Membership), args.Error(1)
}

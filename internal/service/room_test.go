package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"live_rooms/internal/domain"
	"live_rooms/internal/repository"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

type roomFixture struct {
	roomRepo  *repository.MockRoomRepository
	banRepo   *repository.MockBanRepository
	tokenRepo *repository.MockTokenRepository
	events    *MockEventService
	svc       RoomService
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()

	f := &roomFixture{
		roomRepo:  new(repository.MockRoomRepository),
		banRepo:   new(repository.MockBanRepository),
		tokenRepo: new(repository.MockTokenRepository),
		events:    new(MockEventService),
	}
	f.svc = NewRoomService(f.roomRepo, f.banRepo, f.tokenRepo, f.events, logger.NewNop())
	return f
}

func TestRoomCreate_HostMembership(t *testing.T) {
	f := newRoomFixture(t)
	hostID := uuid.New()

	f.roomRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Room) bool {
		return r.HostUserID == hostID && r.Status == domain.RoomStatusOpen && r.Title == "Standup"
	})).Return(nil)
	f.roomRepo.On("CreateMembership", mock.Anything, mock.MatchedBy(func(m *domain.Membership) bool {
		return m.UserID == hostID && m.Role == domain.RoleHost && m.Status == domain.MembershipStatusActive
	})).Return(nil)
	f.events.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.RoomEvent) bool {
		return e.EventType == domain.EventTypeRoomCreated
	})).Return(nil)

	room, err := f.svc.Create(context.Background(), hostID, "Standup")

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, room.ID)
	assert.NotEmpty(t, room.LiveKitRoomName)
	f.roomRepo.AssertExpectations(t)
}

func TestRoomCreate_EmptyTitle(t *testing.T) {
	f := newRoomFixture(t)

	room, err := f.svc.Create(context.Background(), uuid.New(), "")

	assert.Nil(t, room)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRoomJoin_NewMember(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	userID := uuid.New()

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(openRoom(roomID, uuid.New()), nil)
	f.banRepo.On("GetActive", mock.Anything, roomID, userID).Return(nil, nil)
	f.roomRepo.On("GetMembership", mock.Anything, roomID, userID).Return(nil, nil)
	f.roomRepo.On("CreateMembership", mock.Anything, mock.MatchedBy(func(m *domain.Membership) bool {
		return m.UserID == userID && m.Role == domain.RoleListener && m.Status == domain.MembershipStatusActive
	})).Return(nil)
	f.events.On("Append", mock.Anything, mock.Anything).Return(nil)

	membership, err := f.svc.Join(context.Background(), roomID, userID, domain.RoleListener)

	assert.NoError(t, err)
	assert.Equal(t, domain.MembershipStatusActive, membership.Status)
}

func TestRoomJoin_HostRoleRejected(t *testing.T) {
	f := newRoomFixture(t)

	membership, err := f.svc.Join(context.Background(), uuid.New(), uuid.New(), domain.RoleHost)

	assert.Nil(t, membership)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRoomJoin_BannedUser(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	userID := uuid.New()

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(openRoom(roomID, uuid.New()), nil)
	f.banRepo.On("GetActive", mock.Anything, roomID, userID).
		Return(&domain.Ban{RoomID: roomID, UserID: userID, BannedBy: uuid.New()}, nil)

	membership, err := f.svc.Join(context.Background(), roomID, userID, domain.RoleListener)

	assert.Nil(t, membership)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.roomRepo.AssertNotCalled(t, "CreateMembership", mock.Anything, mock.Anything)
}

func TestRoomJoin_RejoinAfterKick(t *testing.T) {
	// kick завершает текущую сессию, но не запрещает возвращение
	f := newRoomFixture(t)
	roomID := uuid.New()
	userID := uuid.New()

	kicked := activeMembership(roomID, userID, domain.RoleSpeaker)
	kicked.Status = domain.MembershipStatusKicked

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(openRoom(roomID, uuid.New()), nil)
	f.banRepo.On("GetActive", mock.Anything, roomID, userID).Return(nil, nil)
	f.roomRepo.On("GetMembership", mock.Anything, roomID, userID).Return(kicked, nil)
	f.roomRepo.On("UpdateMembership", mock.Anything, mock.MatchedBy(func(m *domain.Membership) bool {
		return m.UserID == userID && m.Status == domain.MembershipStatusActive && m.Role == domain.RoleListener
	})).Return(nil)
	f.events.On("Append", mock.Anything, mock.Anything).Return(nil)

	membership, err := f.svc.Join(context.Background(), roomID, userID, domain.RoleListener)

	assert.NoError(t, err)
	assert.Equal(t, domain.MembershipStatusActive, membership.Status)
	f.roomRepo.AssertExpectations(t)
}

func TestRoomJoin_BannedMembershipStatus(t *testing.T) {
	// Статус banned в членстве блокирует rejoin даже без живой записи
	// в реестре банов
	f := newRoomFixture(t)
	roomID := uuid.New()
	userID := uuid.New()

	banned := activeMembership(roomID, userID, domain.RoleSpeaker)
	banned.Status = domain.MembershipStatusBanned

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(openRoom(roomID, uuid.New()), nil)
	f.banRepo.On("GetActive", mock.Anything, roomID, userID).Return(nil, nil)
	f.roomRepo.On("GetMembership", mock.Anything, roomID, userID).Return(banned, nil)

	membership, err := f.svc.Join(context.Background(), roomID, userID, domain.RoleListener)

	assert.Nil(t, membership)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoomJoin_ClosedRoom(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	room := openRoom(roomID, uuid.New())
	room.Status = domain.RoomStatusClosed

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(room, nil)

	membership, err := f.svc.Join(context.Background(), roomID, uuid.New(), domain.RoleListener)

	assert.Nil(t, membership)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoomLeave_RevokesTokens(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	userID := uuid.New()

	f.roomRepo.On("GetMembership", mock.Anything, roomID, userID).
		Return(activeMembership(roomID, userID, domain.RoleSpeaker), nil)
	f.roomRepo.On("UpdateMembership", mock.Anything, mock.MatchedBy(func(m *domain.Membership) bool {
		return m.Status == domain.MembershipStatusLeft
	})).Return(nil)
	f.tokenRepo.On("RevokeAllLive", mock.Anything, roomID, userID).Return(int64(1), nil)
	f.events.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.RoomEvent) bool {
		return e.EventType == domain.EventTypeMemberLeft
	})).Return(nil)

	err := f.svc.Leave(context.Background(), roomID, userID)

	assert.NoError(t, err)
	f.tokenRepo.AssertExpectations(t)
}

func TestRoomLeave_NotAMember(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	userID := uuid.New()

	f.roomRepo.On("GetMembership", mock.Anything, roomID, userID).Return(nil, nil)

	err := f.svc.Leave(context.Background(), roomID, userID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRoomClose_OnlyHost(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	hostID := uuid.New()

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(openRoom(roomID, hostID), nil)

	err := f.svc.Close(context.Background(), roomID, uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.roomRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomClose_Idempotent(t *testing.T) {
	f := newRoomFixture(t)
	roomID := uuid.New()
	hostID := uuid.New()
	room := openRoom(roomID, hostID)
	room.Status = domain.RoomStatusClosed

	f.roomRepo.On("GetByID", mock.Anything, roomID).Return(room, nil)

	err := f.svc.Close(context.Background(), roomID, hostID)

	assert.NoError(t, err)
	f.roomRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

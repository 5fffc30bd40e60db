package domain

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID              uuid.UUID  `json:"id"`
	LiveKitRoomName string     `json:"livekit_room_name"`
	HostUserID      uuid.UUID  `json:"host_user_id"`
	Title           string     `json:"title"`
	Status          RoomStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Membership — одна строка на пару (room, user). Никогда не удаляется,
// только переводится по статусам, чтобы сохранить историю для аудита.
type Membership struct {
	ID        uuid.UUID        `json:"id"`
	RoomID    uuid.UUID        `json:"room_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Role      Role             `json:"role"`
	Status    MembershipStatus `json:"status"`
	JoinedAt  time.Time        `json:"joined_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type RoomStatus string

const (
	RoomStatusOpen   RoomStatus = "open"
	RoomStatusClosed RoomStatus = "closed"
)

type Role string

const (
	RoleHost      Role = "host"
	RoleModerator Role = "moderator"
	RoleSpeaker   Role = "speaker"
	RoleListener  Role = "listener"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleModerator, RoleSpeaker, RoleListener:
		return true
	}
	return false
}

// CanModerate — проверка иерархии ролей: модерируют только host и
// moderator; moderator не может тронуть другого moderator; host
// неприкосновенен для всех.
func (r Role) CanModerate(target Role) bool {
	if target == RoleHost {
		return false
	}
	switch r {
	case RoleHost:
		return true
	case RoleModerator:
		return target != RoleModerator
	}
	return false
}

type MembershipStatus string

const (
	MembershipStatusActive MembershipStatus = "active"
	MembershipStatusLeft   MembershipStatus = "left"
	MembershipStatusKicked MembershipStatus = "kicked"
	MembershipStatusBanned MembershipStatus = "banned"
)

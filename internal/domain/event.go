package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomEvent — append-only запись журнала событий комнаты. Это и
// долговременный аудит, и сигнал для подключённых клиентов: вставка
// публикуется в Redis-канал комнаты.
type RoomEvent struct {
	ID           int64                  `json:"id"`
	RoomID       uuid.UUID              `json:"room_id"`
	Seq          int64                  `json:"seq"`
	EventType    EventType              `json:"event_type"`
	ActorUserID  *uuid.UUID             `json:"actor_user_id,omitempty"`
	TargetUserID *uuid.UUID             `json:"target_user_id,omitempty"`
	Payload      map[string]interface{} `json:"payload"`
	CreatedAt    time.Time              `json:"created_at"`
}

type EventType string

const (
	EventTypeTokenIssued  EventType = "token_issued"
	EventTypeMemberKicked EventType = "member_kicked"
	EventTypeMemberBanned EventType = "member_banned"
	EventTypeEject        EventType = "eject"
	EventTypeRoomCreated  EventType = "room_created"
	EventTypeRoomClosed   EventType = "room_closed"
	EventTypeMemberJoined EventType = "member_joined"
	EventTypeMemberLeft   EventType = "member_left"
)

// ModerationEventTypes — типы, участвующие в проверке "модерация всегда
// побеждает токен": свежее событие из этого списка блокирует refresh.
var ModerationEventTypes = []EventType{
	EventTypeMemberKicked,
	EventTypeMemberBanned,
	EventTypeEject,
}

type ModerationAction string

const (
	ModerationActionKick ModerationAction = "kick"
	ModerationActionBan  ModerationAction = "ban"
)

func (a ModerationAction) Valid() bool {
	return a == ModerationActionKick || a == ModerationActionBan
}

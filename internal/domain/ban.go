package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ban — единственная актуальная запись бана на пару (room, user),
// перезаписывается при повторном бане. ExpiresAt == nil означает
// перманентный бан; истёкший срок проверяется лениво при авторизации.
type Ban struct {
	RoomID    uuid.UUID  `json:"room_id"`
	UserID    uuid.UUID  `json:"user_id"`
	BannedBy  uuid.UUID  `json:"banned_by"`
	Reason    *string    `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (b *Ban) Active(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

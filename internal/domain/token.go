package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomToken — запись в журнале выданных токенов доступа к комнате.
// Seq берётся из общей с room_events последовательности room_clock_seq,
// поэтому порядок выдачи токена и модерационного события сравним без
// оглядки на часы.
type RoomToken struct {
	JTI       uuid.UUID  `json:"jti"`
	RoomID    uuid.UUID  `json:"room_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Seq       int64      `json:"seq"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (t *RoomToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"live_rooms/pkg/logger"
)

type Repositories struct {
	Room      RoomRepository
	Ban       BanRepository
	Token     TokenRepository
	Event     EventRepository
	RateLimit RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		Room:      NewRoomRepository(db, log),
		Ban:       NewBanRepository(db, log),
		Token:     NewTokenRepository(db, log),
		Event:     NewEventRepository(db, log),
		RateLimit: NewRateLimitRepository(redis, log),
	}
}

package service

import (
	"github.com/redis/go-redis/v9"

	"live_rooms/internal/config"
	"live_rooms/internal/repository"
	"live_rooms/pkg/logger"
)

type Services struct {
	Room      RoomService
	Session   SessionService
	RateLimit RateLimitService
	Event     EventService
	Media     MediaAdapter
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, log logger.Logger) *Services {
	media := NewLiveKitAdapter(cfg.LiveKit, log)
	events := NewEventService(repos.Event, rdb, log)
	rateLimit := NewRateLimitService(repos.RateLimit, log)

	return &Services{
		Room:      NewRoomService(repos.Room, repos.Ban, repos.Token, events, log),
		Session:   NewSessionService(repos.Room, repos.Ban, repos.Token, rateLimit, events, media, cfg, log),
		RateLimit: rateLimit,
		Event:     events,
		Media:     media,
	}
}

package handler

import (
	"live_rooms/internal/config"
	"live_rooms/internal/service"
	"live_rooms/pkg/logger"
)

type Handlers struct {
	Health  *HealthHandler
	Room    *RoomHandler
	Session *SessionHandler
	Events  *EventsHandler
}

func NewHandlers(services *service.Services, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Room:    NewRoomHandler(services.Room, log),
		Session: NewSessionHandler(services.Session, log),
		Events:  NewEventsHandler(services.Event, log),
	}
}

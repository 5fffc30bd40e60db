package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"live_rooms/internal/domain"
	"live_rooms/internal/repository"
	"live_rooms/pkg/logger"
)

const eventChannelPrefix = "room_events:"

// EventService — журнал событий комнаты плюс realtime-доставка:
// Append пишет строку в Postgres (аудит) и публикует её в Redis-канал
// комнаты, Subscribe отдаёт поток событий канала в порядке создания.
type EventService interface {
	Append(ctx context.Context, event *domain.RoomEvent) error
	GetLatestModeration(ctx context.Context, roomID, targetUserID uuid.UUID) (*domain.RoomEvent, error)
	Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan *domain.RoomEvent, func(), error)
}

type eventService struct {
	eventRepo repository.EventRepository
	redis     *redis.Client
	log       logger.Logger
}

func NewEventService(eventRepo repository.EventRepository, redis *redis.Client, log logger.Logger) EventService {
	return &eventService{
		eventRepo: eventRepo,
		redis:     redis,
		log:       log,
	}
}

func (s *eventService) Append(ctx context.Context, event *domain.RoomEvent) error {
	if event.Payload == nil {
		event.Payload = make(map[string]interface{})
	}

	if err := s.eventRepo.Append(ctx, event); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error("Failed to marshal room event", "error", err)
		return nil
	}

	// Доставка best-effort: запись в журнале уже есть, подписчик без
	// соединения догонит состояние при следующем refresh
	if err := s.redis.Publish(ctx, eventChannelPrefix+event.RoomID.String(), data).Err(); err != nil {
		s.log.Error("Failed to publish room event", "room_id", event.RoomID, "error", err)
	}

	return nil
}

func (s *eventService) GetLatestModeration(ctx context.Context, roomID, targetUserID uuid.UUID) (*domain.RoomEvent, error) {
	return s.eventRepo.GetLatestModeration(ctx, roomID, targetUserID)
}

func (s *eventService) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan *domain.RoomEvent, func(), error) {
	pubsub := s.redis.Subscribe(ctx, eventChannelPrefix+roomID.String())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	events := make(chan *domain.RoomEvent, 16)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			event := &domain.RoomEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				s.log.Error("Failed to decode room event", "error", err)
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		pubsub.Close()
	}

	return events, cancel, nil
}

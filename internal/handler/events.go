package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live_rooms/internal/service"
	"live_rooms/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type EventsHandler struct {
	eventService service.EventService
	log          logger.Logger
}

func NewEventsHandler(eventService service.EventService, log logger.Logger) *EventsHandler {
	return &EventsHandler{
		eventService: eventService,
		log:          log,
	}
}

// HandleEvents стримит события комнаты подключённому клиенту в порядке
// их создания. Один подписчик на соединение.
func (h *EventsHandler) HandleEvents(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	events, cancel, err := h.eventService.Subscribe(ctx, roomID)
	if err != nil {
		h.log.Error("Failed to subscribe to room events", "room_id", roomID, "error", err)
		return
	}
	defer cancel()

	// Read pump: только для обнаружения закрытия со стороны клиента
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.log.Warn("Failed to write room event", "room_id", roomID, "error", err)
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

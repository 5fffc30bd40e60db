package roomclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live_rooms/internal/domain"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

// State — состояние клиентской сессии комнаты.
type State string

const (
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateSpeaking   State = "speaking"
	StateListening  State = "listening"
	StateEjected    State = "ejected"
	StateLeft       State = "left"
)

func (s State) Terminal() bool {
	return s == StateEjected || s == StateLeft
}

// Grant — ответ сервера на выдачу/обновление токена комнаты.
type Grant struct {
	Token     string    `json:"token"`
	PeerID    string    `json:"peer_id"`
	JTI       uuid.UUID `json:"jti"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type apiError struct {
	Message string `json:"error"`
	Code    string `json:"error_code"`
}

type Config struct {
	BaseURL     string
	RoomID      uuid.UUID
	UserID      uuid.UUID
	AccessToken string

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Log        logger.Logger

	// OnEjected вызывается один раз при принудительном завершении
	// сессии (наблюдаемый eject или Forbidden на refresh); клиент не
	// пытается переподключиться сам.
	OnEjected func(reason string)
	// TeardownMedia освобождает локальные медиаресурсы; вызывается до
	// OnEjected и при Leave.
	TeardownMedia func()
	OnStateChange func(State)
}

// Controller — машина состояний клиентской сессии:
// connecting → connected → (speaking|listening) → ejected|left.
// ejected — терминальное состояние, авто-rejoin запрещён.
type Controller struct {
	cfg    Config
	http   *http.Client
	dialer *websocket.Dialer
	log    logger.Logger

	mu        sync.Mutex
	state     State
	grant     *Grant
	conn      *websocket.Conn
	cancel    context.CancelFunc
	ejectOnce sync.Once
}

func New(cfg Config) *Controller {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}

	return &Controller{
		cfg:    cfg,
		http:   httpClient,
		dialer: dialer,
		log:    log,
		state:  StateConnecting,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect получает токен комнаты и подписывается на поток событий.
func (c *Controller) Connect(ctx context.Context) (*Grant, error) {
	c.setState(StateConnecting)

	grant, err := c.issueToken(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			// Forbidden при выдаче означает, что членство больше не
			// действует — та же развязка, что и наблюдаемый eject
			c.eject("session ended")
		}
		return nil, err
	}

	conn, err := c.dialEvents(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.grant = grant
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	c.setState(StateConnected)

	go c.watchEvents(runCtx, conn)
	go c.refreshLoop(runCtx)

	return grant, nil
}

// SetSpeaking переключает speaking/listening; вне активной сессии — ошибка.
func (c *Controller) SetSpeaking(speaking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnected, StateSpeaking, StateListening:
	default:
		return fmt.Errorf("not in an active session: state %s", c.state)
	}

	if speaking {
		c.state = StateSpeaking
	} else {
		c.state = StateListening
	}
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(c.state)
	}
	return nil
}

// Leave — добровольный выход; отличается от eject отсутствием
// блокирующего уведомления.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%s/leave", c.cfg.RoomID), nil)
	if err == nil {
		resp, doErr := c.http.Do(req)
		if doErr != nil {
			c.log.Warn("Leave request failed", "error", doErr)
		} else {
			resp.Body.Close()
		}
	}

	c.teardown()
	c.setState(StateLeft)
	return nil
}

func (c *Controller) issueToken(ctx context.Context) (*Grant, error) {
	body := map[string]interface{}{}
	c.mu.Lock()
	if c.grant != nil {
		body["current_token_id"] = c.grant.JTI.String()
	}
	c.mu.Unlock()

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%s/token", c.cfg.RoomID), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("%w: %s", sentinelForCode(apiErr.Code, resp.StatusCode), apiErr.Message)
	}

	grant := &Grant{}
	if err := json.NewDecoder(resp.Body).Decode(grant); err != nil {
		return nil, err
	}

	return grant, nil
}

func sentinelForCode(code string, status int) error {
	switch code {
	case apperrors.CodeForbidden:
		return apperrors.ErrForbidden
	case apperrors.CodeRateLimited:
		return apperrors.ErrRateLimited
	case apperrors.CodeUnauthorized:
		return apperrors.ErrUnauthorized
	case apperrors.CodeNotFound:
		return apperrors.ErrNotFound
	case apperrors.CodeConflict:
		return apperrors.ErrConflict
	}
	if status == http.StatusForbidden {
		return apperrors.ErrForbidden
	}
	return apperrors.ErrInternal
}

func (c *Controller) dialEvents(ctx context.Context) (*websocket.Conn, error) {
	wsBase := c.cfg.BaseURL
	if strings.HasPrefix(wsBase, "https://") {
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	} else if strings.HasPrefix(wsBase, "http://") {
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	conn, resp, err := c.dialer.DialContext(ctx, fmt.Sprintf("%s/ws/rooms/%s/events", wsBase, c.cfg.RoomID), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}

	return conn, nil
}

func (c *Controller) watchEvents(ctx context.Context, conn *websocket.Conn) {
	for {
		event := &domain.RoomEvent{}
		if err := conn.ReadJSON(event); err != nil {
			if ctx.Err() == nil && !c.State().Terminal() {
				c.log.Warn("Event stream closed", "error", err)
			}
			return
		}

		if event.EventType != domain.EventTypeEject {
			continue
		}
		if event.TargetUserID == nil || *event.TargetUserID != c.cfg.UserID {
			continue
		}

		reason := ""
		if r, ok := event.Payload["reason"].(string); ok {
			reason = r
		}
		c.eject(reason)
		return
	}
}

func (c *Controller) refreshLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		grant := c.grant
		c.mu.Unlock()
		if grant == nil {
			return
		}

		// Обновление на двух третях срока жизни токена
		wait := time.Until(grant.ExpiresAt) * 2 / 3
		if wait < time.Second {
			wait = time.Second
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if c.State().Terminal() {
			return
		}

		next, err := c.issueToken(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrForbidden) {
				c.eject("session ended")
				return
			}
			// RateLimited и прочие сбои: без плотного retry-цикла,
			// следующая попытка по расписанию
			c.log.Warn("Token refresh failed", "error", err)
			continue
		}

		c.mu.Lock()
		c.grant = next
		c.mu.Unlock()
	}
}

// eject переводит контроллер в терминальное состояние: локальные
// медиаресурсы освобождаются, повторное подключение не выполняется.
func (c *Controller) eject(reason string) {
	c.ejectOnce.Do(func() {
		c.teardown()
		c.setState(StateEjected)
		if c.cfg.OnEjected != nil {
			c.cfg.OnEjected(reason)
		}
	})
}

func (c *Controller) teardown() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.mu.Unlock()

	if c.cfg.TeardownMedia != nil {
		c.cfg.TeardownMedia()
	}
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	if c.state.Terminal() && state != c.state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(state)
	}
}

func (c *Controller) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	return req, nil
}

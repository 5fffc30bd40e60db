package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/twitchtv/twirp"

	"live_rooms/internal/config"
	"live_rooms/internal/domain"
	"live_rooms/pkg/logger"
)

// Peer — участник на стороне медиасервера. Identity несёт внутренний
// ID пользователя: по нему находим peer при модерации, своего индекса
// по user_id у медиасервера нет.
type Peer struct {
	ID       string
	Identity string
	Metadata string
}

// MediaAdapter — граница с внешним SFU. Состояние медиасервера не
// является источником истины, все вызовы — сетевой I/O с одной
// попыткой и таймаутом на вызов.
type MediaAdapter interface {
	CreatePeer(ctx context.Context, externalRoom string, userID uuid.UUID, role domain.Role) (peerID string, mediaToken string, err error)
	RemovePeer(ctx context.Context, externalRoom string, peerID string) error
	ListPeers(ctx context.Context, externalRoom string) ([]Peer, error)
}

type livekitAdapter struct {
	client livekit.RoomService
	cfg    config.LiveKitConfig
	log    logger.Logger
}

func NewLiveKitAdapter(cfg config.LiveKitConfig, log logger.Logger) MediaAdapter {
	return &livekitAdapter{
		client: livekit.NewRoomServiceProtobufClient(httpURL(cfg.URL), &http.Client{Timeout: cfg.Timeout}),
		cfg:    cfg,
		log:    log,
	}
}

// httpURL приводит ws:// URL из конфига к http:// для twirp-клиента
func httpURL(url string) string {
	if strings.HasPrefix(url, "ws://") {
		return "http://" + strings.TrimPrefix(url, "ws://")
	}
	if strings.HasPrefix(url, "wss://") {
		return "https://" + strings.TrimPrefix(url, "wss://")
	}
	return url
}

func (a *livekitAdapter) CreatePeer(ctx context.Context, externalRoom string, userID uuid.UUID, role domain.Role) (string, string, error) {
	canPublish := role != domain.RoleListener
	canSubscribe := true

	at := auth.NewAccessToken(a.cfg.APIKey, a.cfg.APISecret)
	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         externalRoom,
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}

	at.AddGrant(grant).
		SetIdentity(userID.String()).
		SetValidFor(time.Hour)

	token, err := at.ToJWT()
	if err != nil {
		a.log.Error("Failed to mint media token", "error", err)
		return "", "", fmt.Errorf("mint media token: %w", err)
	}

	// Identity и есть peerID: медиасервер регистрирует участника под ним
	return userID.String(), token, nil
}

func (a *livekitAdapter) RemovePeer(ctx context.Context, externalRoom string, peerID string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	ctx, err := a.adminContext(ctx, externalRoom)
	if err != nil {
		return err
	}

	_, err = a.client.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     externalRoom,
		Identity: peerID,
	})
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}

	return nil
}

func (a *livekitAdapter) ListPeers(ctx context.Context, externalRoom string) ([]Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	ctx, err := a.adminContext(ctx, externalRoom)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.ListParticipants(ctx, &livekit.ListParticipantsRequest{
		Room: externalRoom,
	})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	peers := make([]Peer, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		peers = append(peers, Peer{
			ID:       p.Sid,
			Identity: p.Identity,
			Metadata: p.Metadata,
		})
	}

	return peers, nil
}

func (a *livekitAdapter) adminContext(ctx context.Context, room string) (context.Context, error) {
	at := auth.NewAccessToken(a.cfg.APIKey, a.cfg.APISecret)
	at.AddGrant(&auth.VideoGrant{RoomAdmin: true, Room: room}).
		SetValidFor(time.Minute)

	token, err := at.ToJWT()
	if err != nil {
		a.log.Error("Failed to mint admin token", "error", err)
		return nil, fmt.Errorf("mint admin token: %w", err)
	}

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token)
	return twirp.WithHTTPRequestHeaders(ctx, header)
}

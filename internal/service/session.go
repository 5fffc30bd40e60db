package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"live_rooms/internal/config"
	"live_rooms/internal/domain"
	"live_rooms/internal/repository"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

type TokenGrant struct {
	Token     string      `json:"token"`
	PeerID    string      `json:"peer_id"`
	JTI       uuid.UUID   `json:"jti"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type ModerationResult struct {
	Banned       bool       `json:"banned"`
	TargetUserID uuid.UUID  `json:"target_user_id"`
	RoomID       uuid.UUID  `json:"room_id"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// SessionService — движок авторизации сессий: выдача/обновление токенов
// доступа к комнате и модерация участников (kick/ban).
type SessionService interface {
	IssueOrRefreshToken(ctx context.Context, roomID, requesterID uuid.UUID, presentedJTI *uuid.UUID) (*TokenGrant, error)
	ModerateMember(ctx context.Context, roomID, actorID, targetID uuid.UUID, action domain.ModerationAction, reason *string, banDurationMinutes *int) (*ModerationResult, error)
}

type sessionService struct {
	roomRepo  repository.RoomRepository
	banRepo   repository.BanRepository
	tokenRepo repository.TokenRepository
	rateLimit RateLimitService
	events    EventService
	media     MediaAdapter
	cfg       *config.Config
	log       logger.Logger
}

func NewSessionService(
	roomRepo repository.RoomRepository,
	banRepo repository.BanRepository,
	tokenRepo repository.TokenRepository,
	rateLimit RateLimitService,
	events EventService,
	media MediaAdapter,
	cfg *config.Config,
	log logger.Logger,
) SessionService {
	return &sessionService{
		roomRepo:  roomRepo,
		banRepo:   banRepo,
		tokenRepo: tokenRepo,
		rateLimit: rateLimit,
		events:    events,
		media:     media,
		cfg:       cfg,
		log:       log,
	}
}

func (s *sessionService) IssueOrRefreshToken(ctx context.Context, roomID, requesterID uuid.UUID, presentedJTI *uuid.UUID) (*TokenGrant, error) {
	// 1. Лимит попыток. Check-then-record не атомарен: лёгкое
	// превышение под конкурентной нагрузкой допустимо.
	allowed, err := s.rateLimit.CheckLimit(ctx, requesterID, ActionTokenRefresh, roomID,
		s.cfg.RateLimit.TokenRefreshLimit, s.cfg.RateLimit.WindowSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: rate limit check", apperrors.ErrInternal)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: token refresh attempts exceeded", apperrors.ErrRateLimited)
	}
	if err := s.rateLimit.RecordAttempt(ctx, requesterID, ActionTokenRefresh, roomID, s.cfg.RateLimit.WindowSeconds); err != nil {
		s.log.Warn("Failed to record rate limit attempt", "user_id", requesterID, "error", err)
	}

	// 2. Комната существует и открыта
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != domain.RoomStatusOpen {
		return nil, fmt.Errorf("%w: room is closed", apperrors.ErrConflict)
	}

	// 3. Активное членство
	membership, err := s.roomRepo.GetMembership(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Status != domain.MembershipStatusActive {
		return nil, fmt.Errorf("%w: no active membership", apperrors.ErrForbidden)
	}

	// 4. Нет живого бана
	ban, err := s.banRepo.GetActive(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if ban != nil {
		return nil, fmt.Errorf("%w: user is banned", apperrors.ErrForbidden)
	}

	// 5. Предъявленный токен не отозван
	if presentedJTI != nil {
		presented, err := s.tokenRepo.GetByJTI(ctx, *presentedJTI)
		if err != nil {
			return nil, err
		}
		if presented != nil && presented.RevokedAt != nil {
			return nil, fmt.Errorf("%w: session already terminated", apperrors.ErrForbidden)
		}
	}

	// 6. Модерация всегда побеждает токен: событие kick/ban/eject,
	// записанное после выдачи последнего живого токена, блокирует
	// refresh независимо от срока жизни токена.
	lastModeration, err := s.events.GetLatestModeration(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if lastModeration != nil {
		lastToken, err := s.tokenRepo.GetLatestLive(ctx, roomID, requesterID)
		if err != nil {
			return nil, err
		}
		if lastToken != nil && lastModeration.Seq > lastToken.Seq {
			return nil, fmt.Errorf("%w: moderated after token issuance", apperrors.ErrForbidden)
		}
	}

	// Внешний вызов до записи в журнал: токен без peer бесполезен,
	// отказ медиасервера фатален для выдачи
	peerID, mediaToken, err := s.media.CreatePeer(ctx, room.LiveKitRoomName, requesterID, membership.Role)
	if err != nil {
		s.log.Error("Media server peer creation failed", "room_id", roomID, "user_id", requesterID, "error", err)
		return nil, fmt.Errorf("%w: media server unavailable", apperrors.ErrInternal)
	}

	now := time.Now()
	token := &domain.RoomToken{
		JTI:       uuid.New(),
		RoomID:    roomID,
		UserID:    requesterID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.Token.TTL),
	}

	// Отзыв прежних живых токенов и вставка нового — одна транзакция
	if err := s.tokenRepo.IssueExclusive(ctx, token); err != nil {
		return nil, err
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:      roomID,
		EventType:   domain.EventTypeTokenIssued,
		ActorUserID: &requesterID,
		Payload:     map[string]interface{}{"jti": token.JTI.String()},
		CreatedAt:   now,
	}); err != nil {
		s.log.Warn("Failed to append token_issued event", "room_id", roomID, "error", err)
	}

	return &TokenGrant{
		Token:     mediaToken,
		PeerID:    peerID,
		JTI:       token.JTI,
		Role:      membership.Role,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *sessionService) ModerateMember(ctx context.Context, roomID, actorID, targetID uuid.UUID, action domain.ModerationAction, reason *string, banDurationMinutes *int) (*ModerationResult, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("%w: self-moderation is not allowed", apperrors.ErrValidation)
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown moderation action %q", apperrors.ErrValidation, action)
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != domain.RoomStatusOpen {
		return nil, fmt.Errorf("%w: room is closed", apperrors.ErrConflict)
	}

	actor, err := s.roomRepo.GetMembership(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Status != domain.MembershipStatusActive {
		return nil, fmt.Errorf("%w: actor is not an active member", apperrors.ErrForbidden)
	}

	target, err := s.roomRepo.GetMembership(ctx, roomID, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: target is not a member", apperrors.ErrNotFound)
	}

	if !actor.Role.CanModerate(target.Role) {
		return nil, fmt.Errorf("%w: role %s may not moderate %s", apperrors.ErrForbidden, actor.Role, target.Role)
	}

	var expiresAt *time.Time
	now := time.Now()
	if action == domain.ModerationActionBan && banDurationMinutes != nil {
		t := now.Add(time.Duration(*banDurationMinutes) * time.Minute)
		expiresAt = &t
	}

	// Порядок фиксирован: сначала все авторитетные записи, внешний
	// вызов к медиасерверу — после них и best-effort.
	if action == domain.ModerationActionBan {
		if err := s.banRepo.Upsert(ctx, &domain.Ban{
			RoomID:    roomID,
			UserID:    targetID,
			BannedBy:  actorID,
			Reason:    reason,
			ExpiresAt: expiresAt,
		}); err != nil {
			return nil, err
		}
		target.Status = domain.MembershipStatusBanned
	} else {
		target.Status = domain.MembershipStatusKicked
	}

	if err := s.roomRepo.UpdateMembership(ctx, target); err != nil {
		return nil, err
	}

	if _, err := s.tokenRepo.RevokeAllLive(ctx, roomID, targetID); err != nil {
		return nil, err
	}

	// Отзыв токенов уже не даст цели вернуться; зависший peer на
	// медиасервере подберёт reconciliation
	s.removePeer(ctx, room.LiveKitRoomName, targetID)

	eventType := domain.EventTypeMemberKicked
	if action == domain.ModerationActionBan {
		eventType = domain.EventTypeMemberBanned
	}

	payload := map[string]interface{}{"action": string(action)}
	if reason != nil {
		payload["reason"] = *reason
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:       roomID,
		EventType:    eventType,
		ActorUserID:  &actorID,
		TargetUserID: &targetID,
		Payload:      payload,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	// eject — сигнал для немедленного разрыва сессии на клиенте;
	// типизированное событие выше — долговременная запись аудита
	ejectPayload := map[string]interface{}{"action": string(action)}
	if reason != nil {
		ejectPayload["reason"] = *reason
	}
	if expiresAt != nil {
		ejectPayload["expires_at"] = expiresAt.Format(time.RFC3339)
	}

	if err := s.events.Append(ctx, &domain.RoomEvent{
		RoomID:       roomID,
		EventType:    domain.EventTypeEject,
		ActorUserID:  &actorID,
		TargetUserID: &targetID,
		Payload:      ejectPayload,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	return &ModerationResult{
		Banned:       action == domain.ModerationActionBan,
		TargetUserID: targetID,
		RoomID:       roomID,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *sessionService) removePeer(ctx context.Context, externalRoom string, targetID uuid.UUID) {
	peers, err := s.media.ListPeers(ctx, externalRoom)
	if err != nil {
		s.log.Warn("Failed to list media peers", "room", externalRoom, "error", err)
		return
	}

	for _, peer := range peers {
		if peer.Identity != targetID.String() {
			continue
		}
		if err := s.media.RemovePeer(ctx, externalRoom, peer.Identity); err != nil {
			s.log.Warn("Failed to remove media peer", "room", externalRoom, "peer", peer.Identity, "error", err)
		}
		return
	}
}

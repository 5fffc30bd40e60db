package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"live_rooms/internal/repository"
	"live_rooms/pkg/logger"
)

const ActionTokenRefresh = "token_refresh"

// RateLimitService — скользящее окно попыток на тройку
// (пользователь, действие, комната). Check и Record не атомарны:
// небольшое превышение лимита под конкурентной нагрузкой допустимо.
type RateLimitService interface {
	CheckLimit(ctx context.Context, userID uuid.UUID, action string, roomID uuid.UUID, limit int, windowSeconds int) (bool, error)
	RecordAttempt(ctx context.Context, userID uuid.UUID, action string, roomID uuid.UUID, windowSeconds int) error
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func limitKey(userID uuid.UUID, action string, roomID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", userID, action, roomID)
}

func (s *rateLimitService) CheckLimit(ctx context.Context, userID uuid.UUID, action string, roomID uuid.UUID, limit int, windowSeconds int) (bool, error) {
	key := limitKey(userID, action, roomID)
	return s.rateLimitRepo.CheckLimit(ctx, key, limit, time.Duration(windowSeconds)*time.Second)
}

func (s *rateLimitService) RecordAttempt(ctx context.Context, userID uuid.UUID, action string, roomID uuid.UUID, windowSeconds int) error {
	key := limitKey(userID, action, roomID)
	_, err := s.rateLimitRepo.Increment(ctx, key, time.Duration(windowSeconds)*time.Second)
	return err
}

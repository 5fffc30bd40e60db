package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"live_rooms/internal/domain"
	"live_rooms/internal/service"
	apperrors "live_rooms/pkg/errors"
	"live_rooms/pkg/logger"
)

type SessionHandler struct {
	sessionService service.SessionService
	log            logger.Logger
}

func NewSessionHandler(sessionService service.SessionService, log logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log,
	}
}

type IssueTokenRequest struct {
	CurrentTokenID *string `json:"current_token_id,omitempty"`
}

func (h *SessionHandler) IssueToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid room ID", apperrors.ErrValidation))
		return
	}

	var req IssueTokenRequest
	// Тело опционально: пустой запрос означает первую выдачу
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
			return
		}
	}

	var presentedJTI *uuid.UUID
	if req.CurrentTokenID != nil {
		jti, err := uuid.Parse(*req.CurrentTokenID)
		if err != nil {
			respondError(c, fmt.Errorf("%w: invalid current_token_id", apperrors.ErrValidation))
			return
		}
		presentedJTI = &jti
	}

	grant, err := h.sessionService.IssueOrRefreshToken(c.Request.Context(), roomID, userID, presentedJTI)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, grant)
}

type ModerateRequest struct {
	TargetUserID       string  `json:"target_user_id" binding:"required"`
	Action             string  `json:"action" binding:"required"`
	Reason             *string `json:"reason,omitempty"`
	BanDurationMinutes *int    `json:"ban_duration_minutes,omitempty"`
}

func (h *SessionHandler) Moderate(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid room ID", apperrors.ErrValidation))
		return
	}

	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
		return
	}

	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid target_user_id", apperrors.ErrValidation))
		return
	}

	if req.BanDurationMinutes != nil && *req.BanDurationMinutes <= 0 {
		respondError(c, fmt.Errorf("%w: ban_duration_minutes must be positive", apperrors.ErrValidation))
		return
	}

	result, err := h.sessionService.ModerateMember(c.Request.Context(), roomID, actorID, targetID,
		domain.ModerationAction(req.Action), req.Reason, req.BanDurationMinutes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

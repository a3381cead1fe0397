package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
	"camwall/pkg/errors"
	"camwall/pkg/validation"
)

type PTZHandler struct {
	ptzService ports.PTZService
}

func NewPTZHandler(ptzService ports.PTZService) *PTZHandler {
	return &PTZHandler{
		ptzService: ptzService,
	}
}

type MoveRequest struct {
	Direction string `json:"direction" binding:"required"`
}

func (h *PTZHandler) Move(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidatePTZDirection(req.Direction); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	if err := h.ptzService.Move(c.Request.Context(), pos, domain.PTZDirection(req.Direction)); err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"moving": req.Direction})
}

func (h *PTZHandler) Stop(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	if err := h.ptzService.Stop(c.Request.Context(), pos); err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stopped": pos})
}

func (h *PTZHandler) Nudge(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	if err := h.ptzService.Nudge(c.Request.Context(), pos); err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nudged": pos})
}

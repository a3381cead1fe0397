package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
	"camwall/internal/core/services"
	"camwall/pkg/errors"
)

type WallHandler struct {
	viewService ports.ViewService
	feedService ports.FeedService
	metrics     *services.MetricsService
}

func NewWallHandler(
	viewService ports.ViewService,
	feedService ports.FeedService,
	metrics *services.MetricsService,
) *WallHandler {
	return &WallHandler{
		viewService: viewService,
		feedService: feedService,
		metrics:     metrics,
	}
}

// GetWall returns the layout plus the feed status of every position.
func (h *WallHandler) GetWall(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"wall":  h.viewService.Wall(),
		"feeds": h.feedService.Statuses(),
	})
}

func (h *WallHandler) Focus(c *gin.Context) {
	var req struct {
		Position *int `json:"position" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	wall, err := h.viewService.Focus(c.Request.Context(), domain.Position(*req.Position))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wall": wall})
}

func (h *WallHandler) Grid(c *gin.Context) {
	wall := h.viewService.Grid(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"wall": wall})
}

func (h *WallHandler) SetAudio(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	wall, err := h.viewService.SetAudio(c.Request.Context(), pos, *req.Enabled)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wall": wall})
}

// GetMetrics returns in-process aggregates since startup.
func (h *WallHandler) GetMetrics(c *gin.Context) {
	feeds, focuses, uptime := h.metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"feeds":   feeds,
		"focuses": focuses,
		"uptime":  uptime.String(),
	})
}

// positionParam parses the :pos path parameter, writing the error response
// itself on failure.
func positionParam(c *gin.Context) (domain.Position, bool) {
	raw := c.Param("pos")
	n, err := strconv.Atoi(raw)
	if err != nil || !domain.Position(n).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position must be an integer in [0, 4)"})
		return 0, false
	}
	return domain.Position(n), true
}

// handleDomainError maps domain sentinel errors onto HTTP statuses.
func handleDomainError(c *gin.Context, err error) {
	switch err {
	case domain.ErrCameraNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
	case domain.ErrInvalidPosition:
		c.JSON(http.StatusBadRequest, gin.H{"error": "position out of range"})
	case domain.ErrFeedNotRunning:
		c.JSON(http.StatusConflict, gin.H{"error": "feed is not running"})
	case domain.ErrNotFocused:
		c.JSON(http.StatusConflict, gin.H{"error": "position is not focused"})
	case domain.ErrPTZBusy:
		c.JSON(http.StatusConflict, gin.H{"error": "ptz command already in progress"})
	case domain.ErrPTZUnavailable:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ptz unavailable for camera"})
	case domain.ErrPositionOccupied:
		c.JSON(http.StatusConflict, gin.H{"error": "position already occupied"})
	case domain.ErrDuplicateStream:
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate stream url"})
	case domain.ErrMissingCredential:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "camera credentials not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

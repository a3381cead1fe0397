package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
	"camwall/pkg/errors"
	"camwall/pkg/validation"
)

type CameraHandler struct {
	cameras     ports.CameraRepository
	feedService ports.FeedService
}

func NewCameraHandler(cameras ports.CameraRepository, feedService ports.FeedService) *CameraHandler {
	return &CameraHandler{
		cameras:     cameras,
		feedService: feedService,
	}
}

type CameraRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	Host      string `json:"host" binding:"required,max=253"`
	RTSPPort  int    `json:"rtsp_port"`
	ONVIFPort int    `json:"onvif_port"`
	Audio     bool   `json:"audio"`
	Quality   string `json:"quality"`
}

func (h *CameraHandler) ListCameras(c *gin.Context) {
	cameras, err := h.cameras.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cameras": cameras})
}

func (h *CameraHandler) GetCamera(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	camera, err := h.cameras.GetByPosition(c.Request.Context(), pos)
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"camera": camera})
}

// PutCamera assigns or replaces the camera at a position and restarts its
// feed so the change takes effect immediately.
func (h *CameraHandler) PutCamera(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	var req CameraRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Host = strings.TrimSpace(req.Host)

	if err := validation.ValidateCameraName(req.Name); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateHost(req.Host); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePort(req.RTSPPort); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePort(req.ONVIFPort); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	quality := domain.QualityMain
	switch req.Quality {
	case "", "main":
	case "sub":
		quality = domain.QualitySub
	default:
		c.Error(errors.NewInvalidInputError("quality must be \"main\" or \"sub\""))
		return
	}

	rtspPort := req.RTSPPort
	if rtspPort == 0 {
		rtspPort = 554
	}
	onvifPort := req.ONVIFPort
	if onvifPort == 0 {
		onvifPort = 2020
	}

	camera := &domain.Camera{
		Position:  pos,
		Name:      req.Name,
		Host:      req.Host,
		RTSPPort:  rtspPort,
		ONVIFPort: onvifPort,
		Audio:     req.Audio,
		Preferred: quality,
	}

	if err := h.cameras.Save(c.Request.Context(), camera); err != nil {
		handleDomainError(c, err)
		return
	}

	if err := h.feedService.Restart(c.Request.Context(), pos); err != nil {
		// The assignment stuck; report the feed problem without failing the write.
		c.JSON(http.StatusOK, gin.H{"camera": camera, "feed_error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"camera": camera})
}

// DeleteCamera unassigns the position and stops its feed.
func (h *CameraHandler) DeleteCamera(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	if err := h.feedService.Stop(pos); err != nil && err != domain.ErrFeedNotRunning {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cameras.Delete(c.Request.Context(), pos); err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": pos})
}

// RestartFeed tears the position's feed down and brings it back at the
// preferred quality.
func (h *CameraHandler) RestartFeed(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	if err := h.feedService.Restart(c.Request.Context(), pos); err != nil {
		handleDomainError(c, err)
		return
	}

	status, err := h.feedService.Status(pos)
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feed": status})
}

package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"camwall/internal/core/domain"
)

func newPTZRouter(ptz *MockPTZService) *gin.Engine {
	router := newTestRouter()
	handler := NewPTZHandler(ptz)

	router.POST("/api/v1/ptz/:pos/move", handler.Move)
	router.POST("/api/v1/ptz/:pos/stop", handler.Stop)
	router.POST("/api/v1/ptz/:pos/nudge", handler.Nudge)
	return router
}

func TestMoveCommand(t *testing.T) {
	ptz := new(MockPTZService)
	ptz.On("Move", mock.Anything, domain.Position(1), domain.PTZLeft).Return(nil)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/1/move", gin.H{"direction": "left"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "left", body["moving"])
	ptz.AssertExpectations(t)
}

func TestMoveRejectsUnknownDirection(t *testing.T) {
	ptz := new(MockPTZService)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/1/move", gin.H{"direction": "sideways"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ptz.AssertNotCalled(t, "Move")
}

func TestMoveRequiresFocus(t *testing.T) {
	ptz := new(MockPTZService)
	ptz.On("Move", mock.Anything, domain.Position(0), domain.PTZUp).Return(domain.ErrNotFocused)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/0/move", gin.H{"direction": "up"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMoveBusy(t *testing.T) {
	ptz := new(MockPTZService)
	ptz.On("Move", mock.Anything, domain.Position(2), domain.PTZRight).Return(domain.ErrPTZBusy)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/2/move", gin.H{"direction": "right"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMovePTZUnavailable(t *testing.T) {
	ptz := new(MockPTZService)
	ptz.On("Move", mock.Anything, domain.Position(1), domain.PTZDown).Return(domain.ErrPTZUnavailable)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/1/move", gin.H{"direction": "down"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStopCommand(t *testing.T) {
	ptz := new(MockPTZService)
	ptz.On("Stop", mock.Anything, domain.Position(1)).Return(nil)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/1/stop", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	ptz.AssertExpectations(t)
}

func TestNudgeCommand(t *testing.T) {
	ptz := new(MockPTZService)
	ptz.On("Nudge", mock.Anything, domain.Position(3)).Return(nil)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/3/nudge", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	ptz.AssertExpectations(t)
}

func TestPTZInvalidPosition(t *testing.T) {
	ptz := new(MockPTZService)

	router := newPTZRouter(ptz)
	w := performJSON(t, router, http.MethodPost, "/api/v1/ptz/7/move", gin.H{"direction": "left"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ptz.AssertNotCalled(t, "Move")
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
	"camwall/internal/infrastructure/middleware"
)

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) StartAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFeedService) Start(ctx context.Context, pos domain.Position) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

func (m *MockFeedService) Stop(pos domain.Position) error {
	args := m.Called(pos)
	return args.Error(0)
}

func (m *MockFeedService) Restart(ctx context.Context, pos domain.Position) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

func (m *MockFeedService) Status(pos domain.Position) (domain.FeedStatus, error) {
	args := m.Called(pos)
	return args.Get(0).(domain.FeedStatus), args.Error(1)
}

func (m *MockFeedService) Statuses() []domain.FeedStatus {
	args := m.Called()
	return args.Get(0).([]domain.FeedStatus)
}

func (m *MockFeedService) SetMuted(pos domain.Position, muted bool) {
	m.Called(pos, muted)
}

func (m *MockFeedService) Shutdown() {
	m.Called()
}

type MockViewService struct {
	mock.Mock
}

func (m *MockViewService) Wall() domain.Wall {
	args := m.Called()
	return args.Get(0).(domain.Wall)
}

func (m *MockViewService) Focus(ctx context.Context, pos domain.Position) (domain.Wall, error) {
	args := m.Called(ctx, pos)
	return args.Get(0).(domain.Wall), args.Error(1)
}

func (m *MockViewService) Grid(ctx context.Context) domain.Wall {
	args := m.Called(ctx)
	return args.Get(0).(domain.Wall)
}

func (m *MockViewService) SetAudio(ctx context.Context, pos domain.Position, enabled bool) (domain.Wall, error) {
	args := m.Called(ctx, pos, enabled)
	return args.Get(0).(domain.Wall), args.Error(1)
}

func (m *MockViewService) Focused() (domain.Position, bool) {
	args := m.Called()
	return args.Get(0).(domain.Position), args.Bool(1)
}

type MockPTZService struct {
	mock.Mock
}

func (m *MockPTZService) Move(ctx context.Context, pos domain.Position, dir domain.PTZDirection) error {
	args := m.Called(ctx, pos, dir)
	return args.Error(0)
}

func (m *MockPTZService) Stop(ctx context.Context, pos domain.Position) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

func (m *MockPTZService) Nudge(ctx context.Context, pos domain.Position) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

var _ ports.FeedService = (*MockFeedService)(nil)
var _ ports.ViewService = (*MockViewService)(nil)
var _ ports.PTZService = (*MockPTZService)(nil)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"camwall/internal/core/domain"
	"camwall/internal/infrastructure/repositories/memory"
)

func newTestViewService(t *testing.T, feeds *MockFeedService) (*ViewService, *recordingPublisher) {
	t.Helper()
	repo := memory.NewMemoryCameraRepository()

	cam := testCamera(1)
	cam.Audio = true
	require.NoError(t, repo.Save(context.Background(), cam))

	silent := testCamera(2)
	silent.Host = "192.168.1.11"
	silent.Audio = false
	require.NoError(t, repo.Save(context.Background(), silent))

	pub := &recordingPublisher{}
	svc := NewViewService(feeds, repo, pub, NewMetricsService(), zap.NewNop().Sugar())
	return svc, pub
}

func playingStatus(pos domain.Position) domain.FeedStatus {
	return domain.FeedStatus{Position: pos, State: domain.FeedPlaying, Quality: domain.QualityMain, Muted: true}
}

func TestInitialWallIsGrid(t *testing.T) {
	svc, _ := newTestViewService(t, &MockFeedService{})
	wall := svc.Wall()

	assert.Equal(t, domain.LayoutGrid, wall.Layout)
	assert.Equal(t, domain.Position(-1), wall.Audible)

	_, focused := svc.Focused()
	assert.False(t, focused)
}

func TestFocusUnmutesAudioEnabledCamera(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(1)).Return(playingStatus(1), nil)
	feeds.On("SetMuted", mock.Anything, mock.Anything).Return()

	svc, pub := newTestViewService(t, feeds)

	wall, err := svc.Focus(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, domain.LayoutFocus, wall.Layout)
	assert.Equal(t, domain.Position(1), wall.Focused)
	assert.Equal(t, domain.Position(1), wall.Audible)

	// Only the focused position is unmuted.
	feeds.AssertCalled(t, "SetMuted", domain.Position(1), false)
	feeds.AssertCalled(t, "SetMuted", domain.Position(0), true)
	feeds.AssertCalled(t, "SetMuted", domain.Position(2), true)
	feeds.AssertCalled(t, "SetMuted", domain.Position(3), true)

	event, ok := pub.lastWall()
	require.True(t, ok)
	assert.Equal(t, wall, event.Wall)
}

func TestFocusAudioDisabledCameraStaysMuted(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(2)).Return(playingStatus(2), nil)
	feeds.On("SetMuted", mock.Anything, mock.Anything).Return()

	svc, _ := newTestViewService(t, feeds)

	wall, err := svc.Focus(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, domain.Position(2), wall.Focused)
	assert.Equal(t, domain.Position(-1), wall.Audible)
	feeds.AssertCalled(t, "SetMuted", domain.Position(2), true)
}

func TestFocusSamePositionTogglesBackToGrid(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(1)).Return(playingStatus(1), nil)
	feeds.On("SetMuted", mock.Anything, mock.Anything).Return()

	svc, _ := newTestViewService(t, feeds)

	_, err := svc.Focus(context.Background(), 1)
	require.NoError(t, err)

	wall, err := svc.Focus(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, domain.LayoutGrid, wall.Layout)
	assert.Equal(t, domain.Position(-1), wall.Audible)
	feeds.AssertCalled(t, "SetMuted", domain.Position(1), true)
}

func TestFocusDeadFeedRejected(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(1)).Return(
		domain.FeedStatus{Position: 1, State: domain.FeedPaused}, nil)

	svc, _ := newTestViewService(t, feeds)

	_, err := svc.Focus(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrFeedNotRunning)
	assert.Equal(t, domain.LayoutGrid, svc.Wall().Layout)
}

func TestFocusUnstableFeedAllowed(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(1)).Return(
		domain.FeedStatus{Position: 1, State: domain.FeedUnstable}, nil)
	feeds.On("SetMuted", mock.Anything, mock.Anything).Return()

	svc, _ := newTestViewService(t, feeds)

	wall, err := svc.Focus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.LayoutFocus, wall.Layout)
}

func TestFocusInvalidPosition(t *testing.T) {
	svc, _ := newTestViewService(t, &MockFeedService{})
	_, err := svc.Focus(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestGridMutesEverything(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(1)).Return(playingStatus(1), nil)
	feeds.On("SetMuted", mock.Anything, mock.Anything).Return()

	svc, _ := newTestViewService(t, feeds)
	_, err := svc.Focus(context.Background(), 1)
	require.NoError(t, err)

	wall := svc.Grid(context.Background())
	assert.Equal(t, domain.LayoutGrid, wall.Layout)

	for pos := domain.Position(0); pos < domain.MaxPositions; pos++ {
		feeds.AssertCalled(t, "SetMuted", pos, true)
	}
}

func TestSetAudioOnFocusedPositionReroutes(t *testing.T) {
	feeds := &MockFeedService{}
	feeds.On("Status", domain.Position(2)).Return(playingStatus(2), nil)
	feeds.On("SetMuted", mock.Anything, mock.Anything).Return()

	svc, _ := newTestViewService(t, feeds)

	// Position 2 has audio disabled; focusing it leaves everything muted.
	wall, err := svc.Focus(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, domain.Position(-1), wall.Audible)

	// Enabling audio while focused makes it audible.
	wall, err = svc.SetAudio(context.Background(), 2, true)
	require.NoError(t, err)
	assert.Equal(t, domain.Position(2), wall.Audible)
	feeds.AssertCalled(t, "SetMuted", domain.Position(2), false)

	// Disabling it again mutes the wall.
	wall, err = svc.SetAudio(context.Background(), 2, false)
	require.NoError(t, err)
	assert.Equal(t, domain.Position(-1), wall.Audible)
}

func TestSetAudioUnknownCamera(t *testing.T) {
	svc, _ := newTestViewService(t, &MockFeedService{})
	_, err := svc.SetAudio(context.Background(), 3, true)
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)
}

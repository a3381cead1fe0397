package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"camwall/internal/core/services"
	"camwall/internal/infrastructure/middleware"
	"camwall/pkg/config"
)

func newAuthRouter() *gin.Engine {
	cfg := config.DefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.APIUser = "operator"
	cfg.Auth.APIPassword = "hunter2"

	authService := services.NewAuthService(cfg, zap.NewNop().Sugar())

	router := newTestRouter()
	NewAuthHandler(authService).SetupRoutes(router)

	authed := router.Group("/api/v1", middleware.AuthMiddleware(authService))
	authed.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})
	return router
}

func TestLoginEndpoint(t *testing.T) {
	router := newAuthRouter()

	w := performJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "operator",
		"password": "hunter2",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "operator", body["username"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newAuthRouter()

	w := performJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "operator",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsMissingFields(t *testing.T) {
	router := newAuthRouter()

	w := performJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "operator",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newAuthRouter()

	login := performJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "operator",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, login.Code)
	refreshToken := decodeBody(t, login)["refresh_token"].(string)

	w := performJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": refreshToken,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["access_token"])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	router := newAuthRouter()

	login := performJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "operator",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, login.Code)
	accessToken := decodeBody(t, login)["access_token"].(string)

	w := performJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": accessToken,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router := newAuthRouter()

	w := performJSON(t, router, http.MethodGet, "/api/v1/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteWithToken(t *testing.T) {
	router := newAuthRouter()

	login := performJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "operator",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, login.Code)
	accessToken := decodeBody(t, login)["access_token"].(string)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operator", decodeBody(t, rec)["username"])
}

package middlewares

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"civicbridge-be/config"
	"civicbridge-be/models"
	authUtils "civicbridge-be/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Config is loaded once per process; the secret has to be in place
	// before the first config.Get call.
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeSession injects the identity the auth middleware would normally set.
func fakeSession(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	token, err := authUtils.GenerateAndSetToken("64f000000000000000000001", models.Official)
	require.NoError(t, err)

	var gotUserID, gotRole any
	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		gotUserID, _ = c.Get("user_id")
		gotRole, _ = c.Get("role")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "64f000000000000000000001", gotUserID)
	assert.Equal(t, "official", gotRole)
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	token, err := authUtils.GenerateAndSetToken("64f000000000000000000002", models.Resident)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueRateLimiterCapsDailySubmissions(t *testing.T) {
	mr := miniredis.RunT(t)
	config.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.POST("/issues", fakeSession("user-1"), IssueRateLimiter(2), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// The counter expires after a day
	key := config.Get().IssueLimitKeyPrefix + ":user-1"
	assert.Greater(t, mr.TTL(key).Hours(), 23.0)
}

func TestIssueRateLimiterIsPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	config.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	handler := func(c *gin.Context) { c.Status(http.StatusCreated) }
	r.POST("/a", fakeSession("user-a"), IssueRateLimiter(1), handler)
	r.POST("/b", fakeSession("user-b"), IssueRateLimiter(1), handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/a", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/a", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different user is not affected by user-a's counter
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/b", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestIssueRateLimiterRequiresSession(t *testing.T) {
	r := gin.New()
	r.POST("/issues", IssueRateLimiter(1), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

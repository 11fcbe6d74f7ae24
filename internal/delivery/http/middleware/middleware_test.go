package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type staticTokens map[string]entity.Identity

func (s staticTokens) ValidateToken(token string) (entity.Identity, error) {
	id, ok := s[token]
	if !ok {
		return entity.Identity{}, errors.New("bad token")
	}
	return id, nil
}

var tokens = staticTokens{
	"resident": {UserID: "u1", Role: entity.RoleResident},
	"official": {UserID: "u2", Role: entity.RoleWardOfficial},
	"admin":    {UserID: "u3", Role: entity.RoleAdmin},
}

func init() {
	gin.SetMode(gin.TestMode)
}

func echoIdentity(c *gin.Context) {
	id := IdentityFrom(c)
	c.String(http.StatusOK, id.UserID+"|"+string(id.Role))
}

func do(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", AuthMiddleware(tokens), echoIdentity)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "forged").Code)

	w := do(r, "resident")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1|RESIDENT", w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(tokens), echoIdentity)

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "|", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "forged").Code)
	assert.Equal(t, "u2|WARD_OFFICIAL", do(r, "official").Body.String())
}

func TestRoleMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", AuthMiddleware(tokens), OfficialsOnly(), echoIdentity)

	assert.Equal(t, http.StatusForbidden, do(r, "resident").Code)
	assert.Equal(t, http.StatusOK, do(r, "official").Code)

	admin := gin.New()
	admin.GET("/", AuthMiddleware(tokens), RoleMiddleware(entity.RoleAdmin), echoIdentity)
	assert.Equal(t, http.StatusForbidden, do(admin, "official").Code)
	assert.Equal(t, http.StatusOK, do(admin, "admin").Code)

	bare := gin.New()
	bare.GET("/", OfficialsOnly(), echoIdentity)
	assert.Equal(t, http.StatusUnauthorized, do(bare, "").Code)
}

func TestRateLimiter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(2, time.Minute, clock)
	r := gin.New()
	r.GET("/", limiter.Middleware(), echoIdentity)

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"status":429,"message":"too many requests","data":null}`, w.Body.String())

	clock.Advance(61 * time.Second)
	assert.Equal(t, http.StatusOK, do(r, "").Code)

	clock.Advance(3 * time.Minute)
	limiter.evict()
	assert.Empty(t, limiter.visitors)
}

func TestMetricsAndLogger(t *testing.T) {
	m := observability.NewMetricsForTesting()
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	r.Use(RequestLogger(log), Metrics(m))
	r.GET("/reports/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/reports/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration, "flood_http_request_duration_seconds"))
}

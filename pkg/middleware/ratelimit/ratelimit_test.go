package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAllowRespectsBurst(t *testing.T) {
	l := New(1, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))
}

func TestAllowEvictsIdleBuckets(t *testing.T) {
	l := New(1, 1)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	assert.True(t, l.Allow("a"))
	current = current.Add(2 * time.Hour)
	assert.True(t, l.Allow("b"))

	l.mu.Lock()
	_, stillThere := l.limiters["a"]
	l.mu.Unlock()
	assert.False(t, stillThere)
}

func TestDisabledLimiterAllowsAll(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 50; i++ {
		assert.True(t, l.Allow("x"))
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(1, 1)
	r := gin.New()
	r.POST("/login", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"message":"Too many requests, try again later"}`, second.Body.String())
}

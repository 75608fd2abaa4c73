package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blnkfinance/certify/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/wacul/ptr"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func get(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	r := newRouter(RateLimitMiddleware(&config.Configuration{}))
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.1:40000").Code)
	}
}

func TestRateLimitMiddleware_LimitsBurst(t *testing.T) {
	conf := &config.Configuration{RateLimit: config.RateLimitConfig{
		RequestsPerSecond:  ptr.Float64(1),
		Burst:              ptr.Int(2),
		CleanupIntervalSec: ptr.Int(60),
	}}
	r := newRouter(RateLimitMiddleware(conf))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1:40000").Code)
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1:40000").Code)

	resp := get(r, "10.0.0.1:40000")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2:40000").Code, "limits are per client")
}

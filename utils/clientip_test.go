package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	t.Run("first forwarded-for entry wins", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/marketing/track", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1, 10.0.0.2")
		r.Header.Set("X-Real-IP", "198.51.100.4")
		assert.Equal(t, "203.0.113.7", ClientIP(r))
	})

	t.Run("forwarded-for with surrounding spaces", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/marketing/track", nil)
		r.Header.Set("X-Forwarded-For", "  203.0.113.7 , 10.0.0.1")
		assert.Equal(t, "203.0.113.7", ClientIP(r))
	})

	t.Run("real-ip fallback", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/marketing/track", nil)
		r.Header.Set("X-Real-IP", "198.51.100.4")
		assert.Equal(t, "198.51.100.4", ClientIP(r))
	})

	t.Run("remote address fallback", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/marketing/track", nil)
		r.RemoteAddr = "192.0.2.10:54321"
		assert.Equal(t, "192.0.2.10", ClientIP(r))
	})

	t.Run("remote address without port", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/marketing/track", nil)
		r.RemoteAddr = "192.0.2.10"
		assert.Equal(t, "192.0.2.10", ClientIP(r))
	})

	t.Run("nothing usable", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/marketing/track", nil)
		r.RemoteAddr = ""
		assert.Equal(t, "unknown", ClientIP(r))
	})
}

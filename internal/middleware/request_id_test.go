package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequestID(t *testing.T, inbound string) (header string, stored string) {
	t.Helper()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		stored = c.GetString("X-Request-Id")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set("X-Request-Id", inbound)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Header().Get("X-Request-Id"), stored
}

func TestRequestIDGenerated(t *testing.T) {
	header, stored := runRequestID(t, "")

	require.NotEmpty(t, header)
	_, err := uuid.Parse(header)
	assert.NoError(t, err)
	assert.Equal(t, header, stored)
}

func TestRequestIDHonorsValidInbound(t *testing.T) {
	inbound := uuid.NewString()
	header, stored := runRequestID(t, inbound)

	assert.Equal(t, inbound, header)
	assert.Equal(t, inbound, stored)
}

func TestRequestIDReplacesMalformedInbound(t *testing.T) {
	header, stored := runRequestID(t, "not-a-uuid")

	assert.NotEqual(t, "not-a-uuid", header)
	_, err := uuid.Parse(header)
	assert.NoError(t, err)
	assert.Equal(t, header, stored)
}

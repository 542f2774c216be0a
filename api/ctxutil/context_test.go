package ctxutil

import (
	"net/http/httptest"
	"testing"

	"edusync/api/response"
	"edusync/domain/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIdentityRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := Identity(c)
	assert.False(t, ok)

	want := identity.Identity{UserID: "u1", Role: identity.RoleStudent}
	SetIdentity(c, want)
	got, ok := Identity(c)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestWithRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set(response.RequestIDKey, "req-42")

	assert.Equal(t, "req-42", RequestIDFromContext(WithRequestID(c)))
}

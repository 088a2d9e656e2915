package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	claims *models.JWTClaims
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token == "good-token" && s.claims != nil {
		return s.claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
}

func runMiddleware(t *testing.T, mw gin.HandlerFunc, authorization string) (*httptest.ResponseRecorder, *models.JWTClaims) {
	t.Helper()
	recorder := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(recorder)

	var seen *models.JWTClaims
	engine.GET("/probe", mw, func(c *gin.Context) {
		if value, ok := c.Get(ContextUserKey); ok {
			seen = value.(*models.JWTClaims)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	engine.ServeHTTP(recorder, req)
	return recorder, seen
}

func TestJWTAcceptsValidToken(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "user-1"}}
	recorder, claims := runMiddleware(t, JWT(validator), "Bearer good-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestJWTRejectsMissingOrBadToken(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "user-1"}}

	recorder, _ := runMiddleware(t, JWT(validator), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder, _ = runMiddleware(t, JWT(validator), "Bearer bad-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder, _ = runMiddleware(t, JWT(validator), "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestOptionalJWTAllowsAnonymous(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "user-1"}}

	recorder, claims := runMiddleware(t, OptionalJWT(validator), "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, claims)

	// A garbage token does not block the request either.
	recorder, claims = runMiddleware(t, OptionalJWT(validator), "Bearer bad-token")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, claims)

	recorder, claims = runMiddleware(t, OptionalJWT(validator), "Bearer good-token")
	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
}

package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mlops_webapp/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "unit-test-secret"

func signToken(t *testing.T, role string, secret string) string {
	t.Helper()
	claims := principalClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-17",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append(handlers, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"id":   ctx.GetString(ContextPrincipalID),
			"role": ctx.GetString(ContextPrincipalRole),
		})
	})
	r.GET("/probe", chain...)
	return r
}

func withAuthConfig(t *testing.T, jwtSecret, workerToken string) {
	t.Helper()
	saved := config.AppConfig
	config.AppConfig = &config.Config{}
	config.AppConfig.Auth.JWTSecret = jwtSecret
	config.AppConfig.Auth.WorkerToken = workerToken
	t.Cleanup(func() { config.AppConfig = saved })
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	withAuthConfig(t, testJWTSecret, "")
	r := authTestRouter(AuthRequired())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, RoleUser, testJWTSecret))
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"user-17"`)
	assert.Contains(t, recorder.Body.String(), `"role":"user"`)
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	withAuthConfig(t, testJWTSecret, "")
	r := authTestRouter(AuthRequired())

	cases := map[string]string{
		"no header":    "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not.a.jwt",
		"wrong secret": "Bearer " + signToken(t, RoleUser, "other-secret"),
		"unknown role": "Bearer " + signToken(t, "superuser", testJWTSecret),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			recorder := httptest.NewRecorder()
			r.ServeHTTP(recorder, req)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	withAuthConfig(t, testJWTSecret, "")
	r := authTestRouter(AuthRequired())

	claims := principalClaims{
		Role: RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-17",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireRoleGatesByRole(t *testing.T) {
	withAuthConfig(t, testJWTSecret, "")
	r := authTestRouter(AuthRequired(), RequireRole(RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, RoleUser, testJWTSecret))
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, RoleAdmin, testJWTSecret))
	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestWorkerAuth(t *testing.T) {
	withAuthConfig(t, "", "callback-shared-token")
	r := authTestRouter(WorkerAuth())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Worker-Token", "callback-shared-token")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Worker-Token", "wrong")
	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

// 令牌没配置时回调面全关，绝不放行
func TestWorkerAuthClosedWhenUnconfigured(t *testing.T) {
	withAuthConfig(t, "", "")
	r := authTestRouter(WorkerAuth())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Worker-Token", "")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

package v1

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"mlops_webapp/config"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 身份服务在别处签发令牌；这里只校验并取出 {id, role}。
const (
	ContextPrincipalID   = "principal_id"
	ContextPrincipalRole = "principal_role"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

var errInvalidToken = errors.New("invalid or expired token")

type principalClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	if config.AppConfig == nil {
		return nil
	}
	return []byte(config.AppConfig.Auth.JWTSecret)
}

func parseBearerToken(ctx *gin.Context) (*principalClaims, error) {
	header := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, errInvalidToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return nil, errInvalidToken
	}

	secret := jwtSecret()
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	claims := &principalClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.Role != RoleUser && claims.Role != RoleAdmin {
		return nil, errInvalidToken
	}
	return claims, nil
}

// AuthRequired 校验令牌并把主体信息放进请求上下文。
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, err := parseBearerToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.Set(ContextPrincipalID, claims.Subject)
		ctx.Set(ContextPrincipalRole, claims.Role)
		ctx.Next()
	}
}

// RequireRole 角色闸门，必须在 AuthRequired 之后使用。
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(ctx *gin.Context) {
		role, ok := ctx.Get(ContextPrincipalRole)
		if !ok || !allowed[role.(string)] {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		ctx.Next()
	}
}

// WorkerAuth 外部 ML worker 回调用共享令牌鉴权，与用户令牌隔离。
func WorkerAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		expected := ""
		if config.AppConfig != nil {
			expected = config.AppConfig.Auth.WorkerToken
		}
		provided := ctx.GetHeader("X-Worker-Token")
		if expected == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid worker token"})
			return
		}
		ctx.Next()
	}
}

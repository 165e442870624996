package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserIDKey = "userID"
	ctxUserKey   = "user"

	msgNotAuthenticated = "Not authenticated"
	msgBadCredentials   = "Could not validate credentials"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims 令牌声明，sub 为用户名
type Claims struct {
	jwt.RegisteredClaims
}

// UserResolver 根据令牌主体查找用户
type UserResolver interface {
	ResolveUser(ctx context.Context, username string) (*models.User, error)
}

// JWT 令牌签发与校验
type JWT struct {
	secret []byte
	method jwt.SigningMethod
	expire time.Duration
}

// NewJWT 按配置创建，仅支持 HMAC 系列算法
func NewJWT(cfg config.JWTConfig) (*JWT, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	alg := strings.ToUpper(strings.TrimSpace(cfg.Algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	var method jwt.SigningMethod
	switch alg {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm: %s", cfg.Algorithm)
	}

	expire := cfg.ExpireTime
	if expire <= 0 {
		expire = time.Duration(cfg.ExpireMinutes) * time.Minute
	}
	if expire <= 0 {
		expire = 30 * time.Minute
	}
	return &JWT{secret: []byte(cfg.Secret), method: method, expire: expire}, nil
}

// GenerateToken 生成令牌
func (j *JWT) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expire)),
		},
	}
	token := jwt.NewWithClaims(j.method, claims)
	return token.SignedString(j.secret)
}

// ParseToken 解析令牌，校验签名算法、过期时间与 sub
func (j *JWT) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

// Auth 认证中间件，任何校验失败都返回统一的 401
func (j *JWT) Auth(resolver UserResolver, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, msgNotAuthenticated)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, msgNotAuthenticated)
			return
		}

		claims, err := j.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, msgBadCredentials)
			return
		}

		user, err := resolver.ResolveUser(c.Request.Context(), claims.Subject)
		if err != nil {
			log.DebugContext(c.Request.Context(), "token subject rejected", "sub", claims.Subject, "error", err)
			abortUnauthorized(c, msgBadCredentials)
			return
		}

		c.Set(ctxUserIDKey, user.ID)
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// GetCurrentUserID 获取当前用户ID
func GetCurrentUserID(c *gin.Context) uint {
	if id, ok := c.Get(ctxUserIDKey); ok {
		if v, ok := id.(uint); ok {
			return v
		}
	}
	return 0
}

// GetCurrentUser 获取当前用户
func GetCurrentUser(c *gin.Context) *models.User {
	if u, ok := c.Get(ctxUserKey); ok {
		if v, ok := u.(*models.User); ok {
			return v
		}
	}
	return nil
}

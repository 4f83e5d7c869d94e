package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"airport-booking/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// JWTAuth 驗證 HS256 Bearer token，sub 為使用者 id、role 為角色，解析後的 Actor 存入 context
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFromClaims(claims jwt.MapClaims) (model.Actor, error) {
	var userID int
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.Atoi(sub)
		if err != nil {
			return model.Actor{}, fmt.Errorf("invalid subject %q", sub)
		}
		userID = id
	case float64:
		if sub != math.Trunc(sub) {
			return model.Actor{}, fmt.Errorf("invalid subject %v", sub)
		}
		userID = int(sub)
	default:
		return model.Actor{}, errors.New("missing subject")
	}
	if userID <= 0 {
		return model.Actor{}, errors.New("invalid subject")
	}

	role, _ := claims["role"].(string)
	return model.Actor{UserID: userID, Role: role}, nil
}

// ActorFrom 取得 JWTAuth 存入的 Actor
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// SetActor 供測試或內部呼叫直接指定 Actor
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"anoa.com/contentscore/internal/entity"
	userRepo "anoa.com/contentscore/internal/modules/user/repository"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// InternalKeyHeader carries the shared key of the posting subsystem.
const InternalKeyHeader = "X-Internal-Key"

type AuthMiddleware struct {
	userRepo        userRepo.UserRepository
	secret          string
	internalKeyHash []byte
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, secret, internalKeyHash string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo:        userRepo,
		secret:          secret,
		internalKeyHash: []byte(internalKeyHash),
	}
}

// RequireAuth validates an HMAC bearer token whose subject is the numeric
// user id and stores that id under "user_id".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (browsers cannot set headers on WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		if id, err := strconv.ParseInt(claims.Subject, 10, 64); err != nil || id <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetString("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		if user.Role != entity.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// RequireInternalKey guards service-to-service routes. The configured value
// is a bcrypt hash, so the plain key never sits in config.
func (m *AuthMiddleware) RequireInternalKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(InternalKeyHeader)
		if key == "" || bcrypt.CompareHashAndPassword(m.internalKeyHash, []byte(key)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid internal key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

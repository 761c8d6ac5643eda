package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	userRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenParser resolves an access token to the user it was issued to.
type TokenParser interface {
	ParseToken(tokenString string) (uuid.UUID, error)
}

type AuthMiddleware struct {
	tokens   TokenParser
	userRepo userRepo.UserRepository
}

func NewAuthMiddleware(tokens TokenParser, userRepo userRepo.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// RequireAuth resolves the caller and stores user_id, role and user on the
// context. The role is read from the database on every request so a role
// change takes effect without a new token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, err := m.tokens.ParseToken(tokenString)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
				return
			}
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set(response.ContextUserID, user.ID.String())
		c.Set(response.ContextRole, user.Role.Name)
		c.Set("user", user)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(response.ContextUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		if response.GetRole(c) != entity.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	token "github.com/JayJosh846/wishy/utils"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "wishy_session"
	userKey       = "user"
)

type User struct {
	Id    string
	Email string
}

// Authentication resolves the session from the wishy_session cookie, or the
// token header for non-browser clients, and stores the User in the context.
func Authentication(tokens *token.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientToken, _ := c.Cookie(SessionCookie)
		if clientToken == "" {
			clientToken = strings.TrimSpace(c.Request.Header.Get("token"))
		}
		if clientToken == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "No session provided")
			return
		}

		claims, err := tokens.ValidateToken(clientToken)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "Session is invalid or expired")
			return
		}

		c.Set(userKey, User{
			Id:    claims.Id,
			Email: claims.Email,
		})
		c.Next()
	}
}

// CurrentUser returns the session user stored by Authentication.
func CurrentUser(c *gin.Context) (User, bool) {
	value, exists := c.Get(userKey)
	if !exists {
		return User{}, false
	}
	user, ok := value.(User)
	return user, ok
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":         true,
		"response code": status,
		"code":          code,
		"message":       message,
		"data":          "",
	})
}

package middlewares

import (
	"net/http"
	"strings"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the caller's identity into the request
// context. Two credentials are accepted:
//   - "token" header: redis-backed session issued by /login
//   - "Authorization: Bearer" header: stateless JWT for API clients
//
// Requests without either pass through anonymous; handlers decide
// whether auth is required.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.Request.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw := strings.TrimPrefix(auth, "Bearer ")
			parsed, err := utils.JwtValidate(raw)
			if err != nil || !parsed.Valid {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}

			user, err := models.GetUser(c.Request.Context(), claims.ID)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}

			ctx := utils.SetUserIdInContext(c.Request.Context(), user.ID)
			ctx = utils.SetUsernameInContext(ctx, user.Username)
			ctx = utils.SetUserNameInContext(ctx, user.Name)
			ctx = utils.SetUserRoleInContext(ctx, claims.Role)
			ctx = utils.SetIsAdminInContext(ctx, claims.Role == string(models.UserRoleAdmin))
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, err := models.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		ctx = utils.SetIsAdminInContext(ctx, user.Role == models.UserRoleAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

package jwt

import (
	"strings"

	"NeighborGuard/pkg/back"
	"NeighborGuard/pkg/util/myjwt"
	"NeighborGuard/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// ContextUserID gin.Context 中保存当前用户 id 的键
const ContextUserID = "user_id"

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserId)
		c.Set("email", claims.Email)
		c.Next()
	}
}

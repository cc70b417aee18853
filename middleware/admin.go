package middleware

import (
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminRequired admits a request only when its X-Admin-Key matches the
// configured bcrypt hash. With no hash configured admin routes are closed.
func AdminRequired(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if keyHash == "" || key == "" {
			utils.Forbidden(c, "Admin access required")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			utils.Forbidden(c, "Admin access required")
			return
		}
		c.Next()
	}
}

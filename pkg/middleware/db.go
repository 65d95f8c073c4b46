package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DBContextKey is the gin context key the request-scoped *gorm.DB lives under.
const DBContextKey = "db"

// InjectDB makes the global DB handle available to handlers and models.
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBContextKey, db)
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"herss/internal/model"

	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers from a panic anywhere in the kernel (an unguarded
// curve lookup, a nil node reference in a malformed topology) and reports it
// as a 500 instead of closing the connection. A recovered *model.InvariantError
// is reported under its own code so a client can tell a kernel invariant
// violation apart from an unrelated crash.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		switch err := recovered.(type) {
		case *model.InvariantError:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INVARIANT_VIOLATION",
					"message": err.Error(),
				},
			})
		case string:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": err,
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				},
			})
		}
		c.Abort()
	})
}

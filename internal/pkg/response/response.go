package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes {"success": true, ...fields} with status 200.
func Success(c *gin.Context, fields gin.H) {
	SuccessWithStatus(c, http.StatusOK, fields)
}

func SuccessWithStatus(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error writes {"success": false, "message": ..., "code": ...}.
func Error(c *gin.Context, status int, code int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"code":    code,
	})
}

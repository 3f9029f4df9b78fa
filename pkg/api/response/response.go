// Package response holds the JSON envelope helpers shared by all handlers.
package response

import "github.com/gin-gonic/gin"

// OK sends payload with success set, at status 200.
func OK(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	c.JSON(200, payload)
}

// Error sends a failure envelope at the given status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// BadRequest sends a 400 failure envelope.
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// NotFound sends a 404 failure envelope.
func NotFound(c *gin.Context, message string) {
	Error(c, 404, message)
}

// InternalError sends a 500 failure envelope.
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}

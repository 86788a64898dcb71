package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// CustomError accepts either a string or an error as the message.
func CustomError(c *gin.Context, statusCode int, code string, message any) {
	var msg string
	switch v := message.(type) {
	case string:
		msg = v
	case error:
		msg = v.Error()
	default:
		msg = "unexpected error"
	}
	Error(c, statusCode, code, msg)
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Redirect reports an authorization failure together with the view the client
// should navigate to.
func Redirect(c *gin.Context, statusCode int, code, message, target string) {
	ErrorWithDetails(c, statusCode, code, message, gin.H{"redirect": target})
}

package response

import "github.com/gin-gonic/gin"

type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Body{
		Code:    ErrCodeSuccess,
		Message: Message(ErrCodeSuccess),
		Data:    data,
	})
}

// Error writes an error body. An empty message falls back to the code's default.
func Error(c *gin.Context, status int, code int, message string) {
	if message == "" {
		message = Message(code)
	}
	c.JSON(status, Body{Code: code, Message: message})
}

// Abort is Error for middleware
func Abort(c *gin.Context, status int, code int, message string) {
	Error(c, status, code, message)
	c.Abort()
}

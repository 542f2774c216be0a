package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func writeOK(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      code,
		RequestID: getRequestID(c),
	})
}

func HandleSuccess(c *gin.Context, data interface{}, message string) {
	writeOK(c, http.StatusOK, data, message)
}

func HandleCreated(c *gin.Context, data interface{}, message string) {
	writeOK(c, http.StatusCreated, data, message)
}

// HandleNoContent is used for DELETE; a pending side effect still travels in
// the header.
func HandleNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func HandleList(c *gin.Context, data interface{}, total int, message string) {
	c.JSON(http.StatusOK, &ListResponse{
		Success:   true,
		Data:      data,
		Total:     total,
		Message:   message,
		Code:      http.StatusOK,
		RequestID: getRequestID(c),
	})
}

// MarkSideEffectPending 在写响应之前调用；summary 为空时不写头。
func MarkSideEffectPending(c *gin.Context, summary string) {
	if summary != "" {
		c.Header(SideEffectHeader, summary)
	}
}

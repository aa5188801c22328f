package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/edu-content/pkg/httputil"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondWithError writes err with the status mapped from its code and
// records it on the context for the request logger.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(httputil.StatusCode(err), NewErrorResponse(httputil.PublicMessage(err)))
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the uniform JSON envelope returned by every API handler.
type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Msg: msg, Data: data})
}

// Fail writes a 400 envelope. detail is optional extra context for the client.
func Fail(c *gin.Context, msg string, detail interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: 1, Msg: msg, Data: detail})
}

// FailWithStatus writes an envelope with an explicit HTTP status.
func FailWithStatus(c *gin.Context, status int, msg string, detail interface{}) {
	c.JSON(status, Body{Code: 1, Msg: msg, Data: detail})
}

// NotFound writes a 404 envelope.
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Body{Code: 1, Msg: msg})
}

// Forbidden writes a 403 envelope.
func Forbidden(c *gin.Context, msg string, detail interface{}) {
	c.JSON(http.StatusForbidden, Body{Code: 1, Msg: msg, Data: detail})
}

package response

import (
	"net/http"

	"arb-client/pkg/errno"
	"arb-client/pkg/monitor"

	"github.com/gin-gonic/gin"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{} // Return empty object instead of null
	}
	c.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error returns an error response. The HTTP status follows the error kind,
// the body carries the errno code.
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.Set(monitor.ErrnoKey, code)
	c.JSON(HTTPStatus(err), Response{
		Code:    code,
		Message: msg,
		Data:    gin.H{},
	})
}

// HTTPStatus maps an error kind to an HTTP status code.
func HTTPStatus(err error) int {
	switch errno.KindOf(err).Code {
	case errno.OK.Code:
		return http.StatusOK
	case errno.ErrBind.Code, errno.ErrInvalidAddress.Code, errno.ErrInvalidAmount.Code, errno.ErrInvalidABI.Code:
		return http.StatusBadRequest
	case errno.ErrInsufficientFunds.Code:
		return http.StatusUnprocessableEntity
	case errno.ErrNetwork.Code, errno.ErrDecoding.Code:
		return http.StatusBadGateway
	case errno.ErrTimeout.Code:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

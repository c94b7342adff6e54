package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 领域错误码，错误码与文案一一对应且保持稳定，客户端按码分支
const (
	CodeUserNotFound       = 1001
	CodeUserBanned         = 1002
	CodeNotAdmin           = 1003
	CodeBalanceNotEnough   = 1004
	CodeInvalidGameType    = 1005
	CodeDepositNotFound    = 1006
	CodeAlreadyProcessed   = 1007
	CodeWithdrawalNotFound = 1008
	CodeBelowMinimum       = 1009
	CodeInvalidTransition  = 1010
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}

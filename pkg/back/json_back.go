package back

import (
	"errors"
	"net/http"

	"EpiPredict/pkg/xerr"
	"EpiPredict/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorBody 错误响应结构，与前端约定 {"error": "..."}
type ErrorBody struct {
	Error string `json:"error"`
}

// Result 统一返回入口
func Result(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	// 判断是否为自定义错误
	var ce *xerr.CodeError
	if errors.As(err, &ce) {
		if ce.Kind == xerr.KindInternal || ce.Kind == xerr.KindModelUnavailable {
			fields := []zap.Field{
				zap.String("path", c.FullPath()),
				zap.String("kind", ce.Kind.String()),
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err),
			}
			var pe *xerr.PanicError
			if errors.As(err, &pe) {
				fields = append(fields, zap.ByteString("stack", pe.Stack))
			}
			zlog.Error("request failed", fields...)
		}
		Error(c, ce.Code, ce.Message)
		return
	}

	// 默认为系统错误，堆栈和原始信息只写日志
	zlog.Error("unhandled error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	Error(c, xerr.ErrServerError.Code, xerr.ErrServerError.Message)
}

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error 错误返回，code 同时作为 HTTP 状态码
func Error(c *gin.Context, code int, message string) {
	if code < 400 || code > 599 {
		code = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(code, ErrorBody{Error: message})
}

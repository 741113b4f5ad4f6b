package requestid

import (
	"time"

	"EpiPredict/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header 请求 ID 头
const Header = "X-Request-ID"

// RequestID 为每个请求分配 ID，写入 context 与响应头，并记录访问日志。
// 客户端传入的值只有是合法 UUID 时才沿用，否则重新生成，避免任意内容进入日志。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := fromHeader(c.GetHeader(Header))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(Header, id)

		start := time.Now()
		c.Next()

		zlog.Info("http request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// fromHeader 返回规范化的 UUID 字符串，非法值返回空串
func fromHeader(v string) string {
	if v == "" || len(v) > 64 {
		return ""
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return ""
	}
	return id.String()
}

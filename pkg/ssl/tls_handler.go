package ssl

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// SecureOptions 安全响应头配置
type SecureOptions struct {
	Host        string
	Port        int
	SSLRedirect bool // 仅在 HTTPS 部署时开启
	IsDev       bool
}

// TlsHandler 基于 unrolled/secure 设置安全响应头，可选 HTTP->HTTPS 跳转
func TlsHandler(opts SecureOptions) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:        opts.SSLRedirect,
		SSLHost:            opts.Host + ":" + strconv.Itoa(opts.Port),
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		STSSeconds:         stsSeconds(opts.SSLRedirect),
		IsDevelopment:      opts.IsDev,
	})
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// If there was an error, do not continue.
		if err != nil {
			// Process 已经写入了响应（重定向），只中止当前处理链
			c.Abort()
			return
		}
		c.Next()
	}
}

func stsSeconds(https bool) int64 {
	if https {
		return 31536000
	}
	return 0
}

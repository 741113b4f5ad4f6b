package ratelimit

import (
	"EpiPredict/pkg/back"
	"EpiPredict/pkg/xerr"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limit 全局令牌桶限流；perSecond <= 0 时不限流
func Limit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			back.Error(c, xerr.TooManyRequests, "too many requests, please retry later")
			return
		}
		c.Next()
	}
}

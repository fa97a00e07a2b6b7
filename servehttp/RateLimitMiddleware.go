package servehttp

import (
	"net/http"

	"flowcase/misc"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond the given sustained rate with 429.
func RateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(limit, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, &misc.ErrorBody{Code: "common.too_many_requests", Message: "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsAllowHeaders  = []string{"Content-Type", "Authorization", "X-Amz-Date", "X-Api-Key", "X-Amz-Security-Token"}
	corsExposeHeaders = []string{"Content-Type", "Authorization"}
	corsAllowMethods  = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
)

const corsMaxAge = 300

// CORS lets the browser front end call the API from any origin and answers
// preflight requests directly.
func CORS() gin.HandlerFunc {
	allowHeaders := strings.Join(corsAllowHeaders, ",")
	exposeHeaders := strings.Join(corsExposeHeaders, ",")
	allowMethods := strings.Join(corsAllowMethods, ",")
	maxAge := strconv.Itoa(corsMaxAge)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

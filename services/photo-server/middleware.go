package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TokenAuthenticate guards the admin routes with a fixed header
// key/value pair. Photo uploads and feeds stay anonymous; only the
// ledger report sits behind this.
func TokenAuthenticate(headerKey, expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(headerKey) != expected {
			abortWithError(c, http.StatusForbidden, "invalid api token", fmt.Errorf("invalid api token"))
			return
		}
		c.Next()
	}
}

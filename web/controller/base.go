// Package controller provides the HTTP request handlers for the vAio Board
// API: auth, module registry, lifecycle operations, sessions and layouts,
// logs, system metrics and the WebSocket endpoints.
package controller

import (
	"net/http"

	"github.com/vaiolabs/vaio-board/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers, including authentication checks.
type BaseController struct{}

// CheckLogin is a middleware that rejects unauthenticated API access.
func (a *BaseController) CheckLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		pureJsonMsg(c, http.StatusUnauthorized, false, "authentication required")
		c.Abort()
	} else {
		c.Next()
	}
}

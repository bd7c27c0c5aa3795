package controller

import (
	"net/http"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/logger"

	"github.com/gin-gonic/gin"
)

// DBController exposes the destructive database admin operations. Both
// endpoints answer with a plain success flag, never an error page.
type DBController struct{}

func NewDBController(g *gin.RouterGroup) *DBController {
	a := &DBController{}
	a.initRouter(g)
	return a
}

func (a *DBController) initRouter(g *gin.RouterGroup) {
	g.POST("/reset", a.reset)
	g.POST("/clear", a.clear)
}

// reset drops and recreates every table.
func (a *DBController) reset(c *gin.Context) {
	if err := database.ResetDB(); err != nil {
		logger.Error("database reset failed:", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	logger.Warning("database reset by", getRemoteIp(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// clear empties every table but keeps the schema.
func (a *DBController) clear(c *gin.Context) {
	if err := database.ClearDB(); err != nil {
		logger.Error("database clear failed:", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	logger.Warning("database cleared by", getRemoteIp(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

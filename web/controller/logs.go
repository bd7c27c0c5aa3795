package controller

import (
	"net/http"
	"os"

	"github.com/vaiolabs/vaio-board/util/common"
	"github.com/vaiolabs/vaio-board/web/service"

	"github.com/gin-gonic/gin"
)

// LogsController serves log file listing/reading and the indexed error table.
type LogsController struct {
	logService *service.LogService
}

func NewLogsController(g *gin.RouterGroup, logs *service.LogService) *LogsController {
	a := &LogsController{logService: logs}
	a.initRouter(g)
	return a
}

func (a *LogsController) initRouter(g *gin.RouterGroup) {
	g.GET("/list", a.listFiles)
	g.GET("/file", a.readFile)
	g.GET("/errors", a.getErrors)
	g.GET("/:name", a.tail)
}

func (a *LogsController) listFiles(c *gin.Context) {
	files, err := a.logService.ListLogFiles()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (a *LogsController) readFile(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		jsonError(c, http.StatusBadRequest, common.NewError("filename query parameter is required"))
		return
	}

	lines, err := a.logService.ReadLogFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(c, http.StatusNotFound, err)
		} else {
			jsonError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": filename, "lines": lines})
}

func (a *LogsController) getErrors(c *gin.Context) {
	errs, err := a.logService.GetErrors(c.Query("service"), queryInt(c, "limit", 100))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, errs)
}

func (a *LogsController) tail(c *gin.Context) {
	name := c.Param("name")
	lines, err := a.logService.TailLogFile(name, queryInt(c, "lines", 100))
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(c, http.StatusNotFound, err)
		} else {
			jsonError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": name, "lines": lines})
}

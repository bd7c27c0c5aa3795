package controller

import (
	"net/http"

	"github.com/vaiolabs/vaio-board/web/service"

	"github.com/gin-gonic/gin"
)

// ServerController serves the system info snapshot and metric history, plus
// the raw service status listing.
type ServerController struct {
	serverService    *service.ServerService
	history          *service.MetricsHistory
	installerService *service.InstallerService
	tracker          *service.StatusTracker
}

func NewServerController(g *gin.RouterGroup, server *service.ServerService, history *service.MetricsHistory, installer *service.InstallerService, tracker *service.StatusTracker) *ServerController {
	a := &ServerController{
		serverService:    server,
		history:          history,
		installerService: installer,
		tracker:          tracker,
	}
	a.initRouter(g)
	return a
}

func (a *ServerController) initRouter(g *gin.RouterGroup) {
	g.GET("/system/info", a.systemInfo)
	g.GET("/history/:metric", a.metricHistory)
	g.GET("/services", a.getServices)
	g.GET("/services/status", a.getServiceStatuses)
}

func (a *ServerController) systemInfo(c *gin.Context) {
	status := a.serverService.GetStatus(a.serverService.LastStatus())
	c.JSON(http.StatusOK, status)
}

func (a *ServerController) metricHistory(c *gin.Context) {
	samples, err := a.history.History(c.Param("metric"))
	if err != nil {
		jsonError(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metric": c.Param("metric"), "samples": samples})
}

func (a *ServerController) getServices(c *gin.Context) {
	services, err := a.installerService.GetServices()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// getServiceStatuses returns the cached status snapshot without touching the
// supervisor; the poll job keeps it fresh.
func (a *ServerController) getServiceStatuses(c *gin.Context) {
	snapshot := a.tracker.Statuses()
	statuses := make(map[string]string, len(snapshot))
	for name, status := range snapshot {
		statuses[name] = string(status)
	}
	c.JSON(http.StatusOK, statuses)
}

package controller

import (
	"net/http"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/session"

	"github.com/gin-gonic/gin"
)

// LayoutController serves named layout snapshots and the session/layout
// transfer operations.
type LayoutController struct {
	layoutService  *service.LayoutService
	sessionService *service.SessionService
	moduleService  *service.ModuleService
}

func NewLayoutController(g *gin.RouterGroup, layouts *service.LayoutService, sessions *service.SessionService, modules *service.ModuleService) *LayoutController {
	a := &LayoutController{
		layoutService:  layouts,
		sessionService: sessions,
		moduleService:  modules,
	}
	a.initRouter(g)
	return a
}

func (a *LayoutController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.getLayouts)
	g.POST("", a.createLayout)

	g.POST("/from-session", a.fromSession)
	g.POST("/session/clean", a.cleanSession)

	g.GET("/:id", a.getLayout)
	g.PUT("/:id", a.updateLayout)
	g.DELETE("/:id", a.deleteLayout)
	g.POST("/:id/apply", a.applyLayout)
}

func (a *LayoutController) userId(c *gin.Context) int {
	return session.GetLoginUser(c).Id
}

// layoutError maps service errors to 403 (foreign layout) or 404 (missing).
func layoutError(c *gin.Context, err error) {
	switch {
	case err == service.ErrNotOwner:
		jsonError(c, http.StatusForbidden, err)
	case database.IsNotFound(err):
		jsonError(c, http.StatusNotFound, err)
	default:
		jsonError(c, http.StatusInternalServerError, err)
	}
}

func (a *LayoutController) getLayouts(c *gin.Context) {
	layouts, err := a.layoutService.GetLayouts(a.userId(c))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, layouts)
}

type layoutForm struct {
	Name    string           `json:"name"`
	Modules []string         `json:"modules"`
	Grid    model.GridLayout `json:"grid"`
}

func (a *LayoutController) createLayout(c *gin.Context) {
	var form layoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid layout payload")
		return
	}

	layout, err := a.layoutService.CreateLayout(a.userId(c), form.Name, form.Modules, form.Grid)
	if err != nil {
		jsonMsg(c, "create layout", err)
		return
	}
	jsonMsgObj(c, "layout created", layout, nil)
}

func (a *LayoutController) getLayout(c *gin.Context) {
	layout, err := a.layoutService.GetLayout(paramInt(c, "id"), a.userId(c))
	if err != nil {
		layoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, layout)
}

func (a *LayoutController) updateLayout(c *gin.Context) {
	var form layoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid layout payload")
		return
	}

	layout, err := a.layoutService.UpdateLayout(paramInt(c, "id"), a.userId(c), form.Name, form.Modules, form.Grid)
	if err != nil {
		layoutError(c, err)
		return
	}
	jsonMsgObj(c, "layout updated", layout, nil)
}

func (a *LayoutController) deleteLayout(c *gin.Context) {
	if err := a.layoutService.DeleteLayout(paramInt(c, "id"), a.userId(c)); err != nil {
		layoutError(c, err)
		return
	}
	jsonMsg(c, "layout deleted", nil)
}

// applyLayout copies the saved layout into the live session.
func (a *LayoutController) applyLayout(c *gin.Context) {
	sess, err := a.layoutService.ApplyLayout(paramInt(c, "id"), a.userId(c))
	if err != nil {
		layoutError(c, err)
		return
	}
	jsonMsgObj(c, "layout applied", sess, nil)
}

// fromSession snapshots the live session into a new named layout.
func (a *LayoutController) fromSession(c *gin.Context) {
	var form layoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid layout payload")
		return
	}

	layout, err := a.layoutService.FromSession(a.userId(c), form.Name)
	if err != nil {
		jsonMsg(c, "snapshot session", err)
		return
	}
	jsonMsgObj(c, "layout created from session", layout, nil)
}

// cleanSession drops session entries whose module key no longer resolves.
func (a *LayoutController) cleanSession(c *gin.Context) {
	modules, err := a.moduleService.GetModules("", 0)
	if err != nil {
		jsonMsg(c, "clean session", err)
		return
	}
	known := make(map[string]bool, len(modules))
	for _, m := range modules {
		known[m.StaticIdentifier] = true
	}

	sess, err := a.sessionService.CleanSession(a.userId(c), known)
	if err != nil {
		jsonMsg(c, "clean session", err)
		return
	}
	jsonMsgObj(c, "session cleaned", sess, nil)
}

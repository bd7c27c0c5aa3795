package controller

import (
	"net/http"

	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/session"

	"github.com/gin-gonic/gin"
)

// SessionController serves the per-user dashboard session: grid layout,
// active modules, pane state and preferences.
type SessionController struct {
	sessionService *service.SessionService
}

func NewSessionController(g *gin.RouterGroup, sessions *service.SessionService) *SessionController {
	a := &SessionController{sessionService: sessions}
	a.initRouter(g)
	return a
}

func (a *SessionController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.getSession)
	g.DELETE("", a.deleteSession)

	g.GET("/grid", a.getGrid)
	g.PUT("/grid", a.updateGrid)
	g.DELETE("/grid", a.clearGrid)

	g.PUT("/modules", a.updateModules)

	g.GET("/pane/:id", a.getPaneState)
	g.PUT("/pane/:id", a.setPaneState)

	g.GET("/preferences", a.getPreferences)
	g.PUT("/preferences", a.updatePreferences)
}

func (a *SessionController) userId(c *gin.Context) int {
	return session.GetLoginUser(c).Id
}

func (a *SessionController) getSession(c *gin.Context) {
	sess, err := a.sessionService.GetOrCreate(a.userId(c))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *SessionController) deleteSession(c *gin.Context) {
	if err := a.sessionService.DeleteSession(a.userId(c)); err != nil {
		jsonMsg(c, "delete session", err)
		return
	}
	jsonMsg(c, "session deleted", nil)
}

func (a *SessionController) getGrid(c *gin.Context) {
	sess, err := a.sessionService.GetOrCreate(a.userId(c))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, sess.GridLayout)
}

func (a *SessionController) updateGrid(c *gin.Context) {
	var grid model.GridLayout
	if err := c.ShouldBindJSON(&grid); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid grid payload")
		return
	}

	sess, err := a.sessionService.UpdateGrid(a.userId(c), grid)
	if err != nil {
		jsonMsg(c, "update grid", err)
		return
	}
	jsonMsgObj(c, "grid updated", sess.GridLayout, nil)
}

func (a *SessionController) clearGrid(c *gin.Context) {
	sess, err := a.sessionService.ClearGrid(a.userId(c))
	if err != nil {
		jsonMsg(c, "clear grid", err)
		return
	}
	jsonMsgObj(c, "grid cleared", sess.GridLayout, nil)
}

type modulesForm struct {
	Modules []string `json:"modules" binding:"required"`
}

func (a *SessionController) updateModules(c *gin.Context) {
	var form modulesForm
	if err := c.ShouldBindJSON(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid modules payload")
		return
	}

	sess, err := a.sessionService.UpdateActiveModules(a.userId(c), form.Modules)
	if err != nil {
		jsonMsg(c, "update active modules", err)
		return
	}
	jsonMsgObj(c, "active modules updated", sess.ActiveModules, nil)
}

func (a *SessionController) getPaneState(c *gin.Context) {
	state, err := a.sessionService.GetPaneState(a.userId(c), c.Param("id"))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paneId": c.Param("id"), "state": state})
}

func (a *SessionController) setPaneState(c *gin.Context) {
	var state any
	if err := c.ShouldBindJSON(&state); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid pane state payload")
		return
	}

	if err := a.sessionService.SetPaneState(a.userId(c), c.Param("id"), state); err != nil {
		jsonMsg(c, "update pane state", err)
		return
	}
	jsonMsg(c, "pane state updated", nil)
}

func (a *SessionController) getPreferences(c *gin.Context) {
	sess, err := a.sessionService.GetOrCreate(a.userId(c))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, sess.Preferences)
}

func (a *SessionController) updatePreferences(c *gin.Context) {
	var prefs map[string]any
	if err := c.ShouldBindJSON(&prefs); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid preferences payload")
		return
	}

	sess, err := a.sessionService.UpdatePreferences(a.userId(c), prefs)
	if err != nil {
		jsonMsg(c, "update preferences", err)
		return
	}
	jsonMsgObj(c, "preferences updated", sess.Preferences, nil)
}

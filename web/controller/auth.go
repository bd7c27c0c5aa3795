package controller

import (
	"net/http"
	"time"

	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/session"

	"github.com/gin-gonic/gin"
)

// AuthController handles bootstrap admin creation, login and logout.
type AuthController struct {
	userService *service.UserService
}

func NewAuthController(g *gin.RouterGroup, userService *service.UserService) *AuthController {
	a := &AuthController{userService: userService}
	a.initRouter(g)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup) {
	g.POST("/set-admin", a.setAdmin)
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)
	g.GET("/me", a.me)
}

type credentialsForm struct {
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// setAdmin creates the bootstrap SU account. Once one exists every further
// attempt is rejected with 403.
func (a *AuthController) setAdmin(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid credentials payload")
		return
	}

	user, err := a.userService.CreateAdmin(form.Name, form.Username, form.Password)
	if err == service.ErrAdminExists {
		pureJsonMsg(c, http.StatusForbidden, false, "admin user already exists")
		return
	}
	if err != nil {
		jsonMsg(c, "create admin", err)
		return
	}

	logger.Infof("bootstrap admin %s created from %s", user.Username, getRemoteIp(c))
	jsonMsgObj(c, "admin created", user, nil)
}

func (a *AuthController) login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid credentials payload")
		return
	}

	user := a.userService.CheckUser(form.Username, form.Password)
	if user == nil {
		logger.Warningf("failed login attempt for %s from %s", form.Username, getRemoteIp(c))
		pureJsonMsg(c, http.StatusUnauthorized, false, "invalid username or password")
		return
	}

	if err := session.SetLoginUser(c, user); err != nil {
		jsonMsg(c, "login", err)
		return
	}
	logger.Infof("user %s logged in from %s at %s", user.Username, getRemoteIp(c), time.Now().Format("2006-01-02 15:04:05"))
	jsonMsgObj(c, "login successful", user, nil)
}

func (a *AuthController) logout(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user != nil {
		logger.Infof("user %s logged out", user.Username)
	}
	if err := session.ClearSession(c); err != nil {
		jsonMsg(c, "logout", err)
		return
	}
	jsonMsg(c, "logout successful", nil)
}

// me returns the logged-in user, 401 when the cookie is absent or stale.
func (a *AuthController) me(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user == nil {
		pureJsonMsg(c, http.StatusUnauthorized, false, "not logged in")
		return
	}
	c.JSON(http.StatusOK, user)
}

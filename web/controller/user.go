package controller

import (
	"net/http"

	"github.com/vaiolabs/vaio-board/web/service"

	"github.com/gin-gonic/gin"
)

// UserController is the minimal admin user management surface.
type UserController struct {
	userService *service.UserService
}

func NewUserController(g *gin.RouterGroup, users *service.UserService) *UserController {
	a := &UserController{userService: users}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.getUsers)
	g.POST("", a.createUser)
}

func (a *UserController) getUsers(c *gin.Context) {
	users, err := a.userService.GetUsers()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type userForm struct {
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Role     string `json:"role" form:"role"`
}

func (a *UserController) createUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid user payload")
		return
	}

	user, err := a.userService.CreateUser(form.Name, form.Username, form.Password, form.Role)
	if err != nil {
		jsonMsg(c, "create user", err)
		return
	}
	jsonMsgObj(c, "user created", user, nil)
}

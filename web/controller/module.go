package controller

import (
	"net/http"
	"strings"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/util/common"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/session"

	"github.com/gin-gonic/gin"
)

// ModuleController serves the module registry CRUD, the lifecycle operations
// (start/stop/status) and the installer endpoints.
type ModuleController struct {
	moduleService    *service.ModuleService
	lifecycleService *service.LifecycleService
	installerService *service.InstallerService
}

func NewModuleController(g *gin.RouterGroup, modules *service.ModuleService, lifecycle *service.LifecycleService, installer *service.InstallerService) *ModuleController {
	a := &ModuleController{
		moduleService:    modules,
		lifecycleService: lifecycle,
		installerService: installer,
	}
	a.initRouter(g)
	return a
}

func (a *ModuleController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.getModules)

	// install/uninstall live under a static prefix so the :key wildcard
	// below never swallows them
	g.POST("/installer/:key/install", a.install)
	g.DELETE("/installer/:key/uninstall", a.uninstall)

	g.POST("/:key", a.createModule)
	g.GET("/:key/:id", a.getModule)
	g.PUT("/:key/:id", a.updateModule)
	g.DELETE("/:key/:id", a.deleteModule)

	g.POST("/:key/start", a.start)
	g.POST("/:key/stop", a.stop)
	g.GET("/:key/status", a.status)
}

func (a *ModuleController) getModules(c *gin.Context) {
	moduleType := model.ModuleType(strings.ToUpper(c.Query("module_type")))
	if moduleType != "" && !model.ValidModuleType(string(moduleType)) {
		jsonError(c, http.StatusBadRequest, common.NewErrorf("invalid module type: %s", moduleType))
		return
	}
	userId := queryInt(c, "user_id", 0)

	modules, err := a.moduleService.GetModules(moduleType, userId)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, modules)
}

// createModule registers a module of the type named in the path. Derived
// fields (key, pane component, static identifier) are filled from the name.
func (a *ModuleController) createModule(c *gin.Context) {
	moduleType := model.ModuleType(strings.ToUpper(c.Param("key")))
	if !model.ValidModuleType(string(moduleType)) {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid module type: "+c.Param("key"))
		return
	}

	module := &model.Module{}
	if err := c.ShouldBind(module); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid module payload")
		return
	}
	module.Id = 0
	module.ModuleType = moduleType
	module.UserId = session.GetLoginUser(c).Id

	if err := a.moduleService.CreateModule(module); err != nil {
		jsonMsg(c, "create module", err)
		return
	}
	jsonMsgObj(c, "module created", module, nil)
}

func (a *ModuleController) getModule(c *gin.Context) {
	id := paramInt(c, "id")
	module, err := a.moduleService.GetById(id)
	if err != nil {
		if database.IsNotFound(err) {
			jsonError(c, http.StatusNotFound, err)
		} else {
			jsonError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, module)
}

func (a *ModuleController) updateModule(c *gin.Context) {
	id := paramInt(c, "id")
	existing, err := a.moduleService.GetById(id)
	if err != nil {
		jsonMsg(c, "update module", err)
		return
	}

	module := &model.Module{}
	if err := c.ShouldBind(module); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid module payload")
		return
	}
	module.Id = existing.Id
	module.UserId = existing.UserId
	module.CreatedAt = existing.CreatedAt

	if err := a.moduleService.UpdateModule(module); err != nil {
		jsonMsg(c, "update module", err)
		return
	}
	jsonMsgObj(c, "module updated", module, nil)
}

func (a *ModuleController) deleteModule(c *gin.Context) {
	id := paramInt(c, "id")
	if err := a.moduleService.DeleteModule(id); err != nil {
		jsonMsg(c, "delete module", err)
		return
	}
	jsonMsg(c, "module deleted", nil)
}

func (a *ModuleController) start(c *gin.Context) {
	name := c.Param("key")
	status := a.lifecycleService.Start(c.Request.Context(), name)
	c.JSON(http.StatusOK, gin.H{"name": name, "status": string(status)})
}

func (a *ModuleController) stop(c *gin.Context) {
	name := c.Param("key")
	status := a.lifecycleService.Stop(c.Request.Context(), name)
	c.JSON(http.StatusOK, gin.H{"name": name, "status": string(status)})
}

func (a *ModuleController) status(c *gin.Context) {
	name := c.Param("key")
	status := a.lifecycleService.StatusFor(c.Request.Context(), name)
	c.JSON(http.StatusOK, gin.H{"name": name, "status": string(status)})
}

type installForm struct {
	Command    string `json:"command" form:"command" binding:"required"`
	ModuleType string `json:"moduleType" form:"moduleType"`
	Autostart  bool   `json:"autostart" form:"autostart"`
}

func (a *ModuleController) install(c *gin.Context) {
	var form installForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid install payload")
		return
	}
	moduleType := model.ModuleType(strings.ToUpper(form.ModuleType))
	if !model.ValidModuleType(string(moduleType)) {
		moduleType = model.ModuleTypeService
	}

	user := session.GetLoginUser(c)
	module, err := a.installerService.Install(c.Request.Context(), c.Param("key"), form.Command, moduleType, form.Autostart, user.Id)
	if err != nil {
		jsonMsg(c, "install module", err)
		return
	}
	jsonMsgObj(c, "module installed", module, nil)
}

func (a *ModuleController) uninstall(c *gin.Context) {
	user := session.GetLoginUser(c)
	if err := a.installerService.Uninstall(c.Request.Context(), c.Param("key"), user.Id); err != nil {
		jsonMsg(c, "uninstall module", err)
		return
	}
	jsonMsg(c, "module uninstalled", nil)
}


// Package web wires the vAio Board panel together: gin engine, cookie
// session store, WebSocket hub, services, controllers and cron jobs.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vaiolabs/vaio-board/caching"
	"github.com/vaiolabs/vaio-board/config"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/supervisor"
	"github.com/vaiolabs/vaio-board/util/common"
	"github.com/vaiolabs/vaio-board/web/controller"
	"github.com/vaiolabs/vaio-board/web/job"
	"github.com/vaiolabs/vaio-board/web/middleware"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/session"
	"github.com/vaiolabs/vaio-board/web/websocket"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener

	hub     *websocket.Hub
	cache   *caching.Cache
	tracker *service.StatusTracker

	userService      *service.UserService
	moduleService    *service.ModuleService
	sessionService   *service.SessionService
	layoutService    *service.LayoutService
	serverService    *service.ServerService
	logService       *service.LogService
	history          *service.MetricsHistory
	lifecycleService *service.LifecycleService
	installerService *service.InstallerService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// initServices builds the service graph: supervisor client, caches, tracker
// and the lifecycle/installer services wired on top of them.
func (s *Server) initServices() error {
	s.cache = caching.NewCache()
	if err := s.cache.Init(time.Minute); err != nil {
		return err
	}

	s.hub = websocket.NewHub()
	s.tracker = service.NewStatusTracker()

	supClient := supervisor.NewClient()

	s.userService = &service.UserService{}
	s.moduleService = service.NewModuleService(s.cache)
	s.sessionService = &service.SessionService{}
	s.layoutService = service.NewLayoutService(s.sessionService)
	s.serverService = &service.ServerService{}
	s.logService = &service.LogService{}
	s.history = service.NewMetricsHistory()
	s.lifecycleService = service.NewLifecycleService(supClient, s.moduleService, s.tracker, s.hub)
	s.installerService = service.NewInstallerService(supClient, s.moduleService)
	return nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	if webDomain := config.GetWebDomain(); webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}

	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/", "/ws/"}),
	))

	store := cookie.NewStore([]byte(uuid.NewString()))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
	})
	engine.Use(sessions.Sessions(session.CookieName, store))

	base := &controller.BaseController{}

	api := engine.Group("/api")
	controller.NewAuthController(api.Group("/auth"), s.userService)

	secured := api.Group("")
	secured.Use(base.CheckLogin)
	controller.NewModuleController(secured.Group("/modules"), s.moduleService, s.lifecycleService, s.installerService)
	controller.NewSessionController(secured.Group("/user/session"), s.sessionService)
	controller.NewLayoutController(secured.Group("/user/layouts"), s.layoutService, s.sessionService, s.moduleService)
	controller.NewLogsController(secured.Group("/logs"), s.logService)
	controller.NewServerController(secured.Group(""), s.serverService, s.history, s.installerService, s.tracker)
	controller.NewUserController(secured.Group("/users"), s.userService)
	controller.NewDBController(secured.Group("/db"))

	wsGroup := engine.Group("/ws")
	wsGroup.Use(base.CheckLogin)
	controller.NewStreamController(wsGroup, s.hub, s.lifecycleService, s.moduleService, s.serverService, s.logService)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

func (s *Server) startTask() {
	// catch up with reality before the first poll tick
	job.NewAutostartJob(s.lifecycleService).Run()

	s.cron.AddJob("@every 5s", job.NewCheckServiceStatusJob(s.lifecycleService))
	s.cron.AddJob("@every 1s", job.NewMetricsSampleJob(s.serverService, s.history))
	s.cron.AddJob("@every 5m", job.NewMetricsResetJob(s.history))
	s.cron.AddJob("@every 1m", job.NewIndexServiceErrorsJob(s.logService))
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err := s.initServices(); err != nil {
		return err
	}
	go s.hub.Run()

	s.cron = cron.New(cron.WithSeconds())
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.tracker != nil {
		s.tracker.Stop()
	}
	if s.hub != nil {
		s.hub.Stop()
	}
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cache != nil {
		s.cache.Flush()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

func (s *Server) GetCtx() context.Context { return s.ctx }

func (s *Server) GetCron() *cron.Cron { return s.cron }

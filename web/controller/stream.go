package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/vaiolabs/vaio-board/config"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/supervisor"
	"github.com/vaiolabs/vaio-board/util/common"
	"github.com/vaiolabs/vaio-board/web/entity"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/websocket"

	"github.com/creack/pty"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// origin policy is enforced by the domain validator middleware
		return true
	},
}

// graphInterval is the push period per metric stream.
func graphInterval(metric string) time.Duration {
	if metric == "disk" {
		return 5 * time.Second
	}
	return time.Second
}

// clientMessage is what dashboard clients send upstream on a socket.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StreamController owns every WebSocket endpoint: module status namespaces,
// metric graph streams, log tailing and the interactive PTY shell.
type StreamController struct {
	hub              *websocket.Hub
	lifecycleService *service.LifecycleService
	moduleService    *service.ModuleService
	serverService    *service.ServerService
	logService       *service.LogService
}

func NewStreamController(g *gin.RouterGroup, hub *websocket.Hub, lifecycle *service.LifecycleService, modules *service.ModuleService, server *service.ServerService, logs *service.LogService) *StreamController {
	a := &StreamController{
		hub:              hub,
		lifecycleService: lifecycle,
		moduleService:    modules,
		serverService:    server,
		logService:       logs,
	}
	a.initRouter(g)
	return a
}

func (a *StreamController) initRouter(g *gin.RouterGroup) {
	g.GET("/modules/:name", a.moduleSocket)
	for _, metric := range service.HistoryMetrics {
		g.GET("/graph-"+metric, a.graphSocket(metric))
	}
	g.GET("/logs", a.logSocket)
	g.GET("/pty", a.ptySocket)
}

func (a *StreamController) upgrade(c *gin.Context, namespace string) (*websocket.Client, bool) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warning("websocket upgrade failed:", err)
		return nil, false
	}

	client := &websocket.Client{
		ID:        uuid.NewString(),
		Namespace: namespace,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
	a.hub.Register(client)
	go client.WritePump()
	return client, true
}

// moduleSocket is the per-module status namespace. On connect the current
// status is emitted to the connecting client only; startService/stopService
// events mirror the HTTP lifecycle endpoints; the last disconnect arms the
// offline watchdog. A missing or status-less module gets the NOT_INSTALLED
// sentinel and never enters the tracker, so no offline watchdog can fire
// for it.
func (a *StreamController) moduleSocket(c *gin.Context) {
	name := c.Param("name")
	namespace := service.ModuleNamespace(name)

	client, ok := a.upgrade(c, namespace)
	if !ok {
		return
	}

	module, err := a.moduleService.FindByKey(name)
	if err != nil || module == nil || !module.SupportsStatus {
		a.hub.Emit(client, "statusUpdate", entity.StatusUpdate{
			Name:   name,
			Status: string(supervisor.NotInstalled),
		})
		defer func() {
			common.Recover("module socket " + name)
			a.hub.Unregister(client)
		}()
		for {
			if _, _, err := client.Conn.ReadMessage(); err != nil {
				return
			}
		}
	}

	a.lifecycleService.HandleConnect(namespace, client.ID)
	status := a.lifecycleService.StatusFor(c.Request.Context(), name)
	a.hub.Emit(client, "statusUpdate", entity.StatusUpdate{
		Name:       name,
		Status:     string(status),
		ModuleType: string(module.ModuleType),
	})

	defer func() {
		common.Recover("module socket " + name)
		a.hub.Unregister(client)
		a.lifecycleService.HandleDisconnect(namespace, client.ID, name)
	}()

	for {
		_, payload, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch msg.Event {
		case "startService":
			a.lifecycleService.Start(context.Background(), name)
		case "stopService":
			a.lifecycleService.Stop(context.Background(), name)
		}
	}
}

// graphSocket streams one metric to its namespace. Each connection gets its
// own ticker, cancelled on disconnect.
func (a *StreamController) graphSocket(metric string) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := a.upgrade(c, "/graph-"+metric)
		if !ok {
			return
		}

		done := make(chan struct{})
		go a.streamMetric(client, metric, done)

		defer func() {
			common.Recover("graph socket " + metric)
			close(done)
			a.hub.Unregister(client)
		}()

		for {
			if _, _, err := client.Conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (a *StreamController) streamMetric(client *websocket.Client, metric string, done <-chan struct{}) {
	defer common.Recover("metric stream " + metric)

	ticker := time.NewTicker(graphInterval(metric))
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			status := a.serverService.GetStatus(a.serverService.LastStatus())
			a.hub.Emit(client, "metrics_update", metricPayload(status, metric))
		}
	}
}

func metricPayload(status *service.Status, metric string) map[string]any {
	switch metric {
	case "cpu":
		return map[string]any{
			"percent": status.Cpu,
			"cores":   status.CpuCores,
			"model":   status.CpuModel,
			"loads":   status.Loads,
		}
	case "memory":
		return map[string]any{
			"percent": status.Mem.Percent,
			"current": status.Mem.Current,
			"total":   status.Mem.Total,
			"label":   common.FormatBytes(status.Mem.Current) + " / " + common.FormatBytes(status.Mem.Total),
			"swap":    status.Swap,
		}
	case "disk":
		return map[string]any{
			"percent": status.Disk.Percent,
			"current": status.Disk.Current,
			"total":   status.Disk.Total,
			"label":   common.FormatBytes(status.Disk.Current) + " / " + common.FormatBytes(status.Disk.Total),
		}
	case "network":
		return map[string]any{
			"up":   status.NetIO.Up,
			"down": status.NetIO.Down,
			"sent": status.NetTraffic.Sent,
			"recv": status.NetTraffic.Recv,
		}
	case "gpu":
		return map[string]any{
			"present":     status.Gpu.Present,
			"name":        status.Gpu.Name,
			"utilization": status.Gpu.Utilization,
			"memUsed":     status.Gpu.MemUsed,
			"memTotal":    status.Gpu.MemTotal,
			"temperature": status.Gpu.Temperature,
		}
	}
	return map[string]any{}
}

// logSocket tails a log file: the last lines first, then every appended line
// as it arrives.
func (a *StreamController) logSocket(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename query parameter is required"})
		return
	}

	lines, err := a.logService.TailLogFile(filename, 100)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	client, ok := a.upgrade(c, "/logs/"+filename)
	if !ok {
		return
	}
	a.hub.Emit(client, "log_history", map[string]any{"filename": filename, "lines": lines})

	done := make(chan struct{})
	go a.followLog(client, filename, done)

	defer func() {
		common.Recover("log socket " + filename)
		close(done)
		a.hub.Unregister(client)
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (a *StreamController) followLog(client *websocket.Client, filename string, done <-chan struct{}) {
	defer common.Recover("log follow " + filename)

	lastCount := 0
	if lines, err := a.logService.TailLogFile(filename, 0); err == nil {
		lastCount = len(lines)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			lines, err := a.logService.TailLogFile(filename, 0)
			if err != nil {
				continue
			}
			if len(lines) < lastCount {
				// file rotated or truncated, start over
				lastCount = 0
			}
			for _, line := range lines[lastCount:] {
				a.hub.Emit(client, "log_line", map[string]any{"filename": filename, "line": line})
			}
			lastCount = len(lines)
		}
	}
}

type resizePayload struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

// ptySocket runs an interactive shell behind the socket. Client events:
// input (raw keystrokes), resize. Server events: output, pty_error. The
// shell process dies with the connection.
func (a *StreamController) ptySocket(c *gin.Context) {
	client, ok := a.upgrade(c, "/pty")
	if !ok {
		return
	}

	cmd := exec.Command(config.GetShell())
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	ptmx, err := pty.Start(cmd)
	if err != nil {
		a.hub.Emit(client, "pty_error", map[string]any{"error": err.Error()})
		a.hub.Unregister(client)
		return
	}

	defer func() {
		common.Recover("pty socket")
		ptmx.Close()
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		cmd.Wait()
		a.hub.Unregister(client)
	}()

	go func() {
		defer common.Recover("pty output pump")
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				a.hub.Emit(client, "output", string(buf[:n]))
			}
			if err != nil {
				if err != io.EOF {
					a.hub.Emit(client, "pty_error", map[string]any{"error": err.Error()})
				}
				return
			}
		}
	}()

	for {
		_, payload, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch msg.Event {
		case "input":
			var input string
			if err := json.Unmarshal(msg.Data, &input); err != nil {
				continue
			}
			if _, err := ptmx.Write([]byte(input)); err != nil {
				a.hub.Emit(client, "pty_error", map[string]any{"error": err.Error()})
				return
			}
		case "resize":
			var size resizePayload
			if err := json.Unmarshal(msg.Data, &size); err != nil {
				continue
			}
			if err := pty.Setsize(ptmx, &pty.Winsize{Cols: size.Cols, Rows: size.Rows}); err != nil {
				logger.Debug("pty resize failed:", err)
			}
		}
	}
}

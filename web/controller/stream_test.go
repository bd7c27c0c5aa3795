package controller

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vaiolabs/vaio-board/caching"
	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/supervisor"
	"github.com/vaiolabs/vaio-board/web/service"
	"github.com/vaiolabs/vaio-board/web/websocket"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	os.Setenv("VAIO_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.DEBUG)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type streamFixture struct {
	server  *httptest.Server
	hub     *websocket.Hub
	tracker *service.StatusTracker
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()

	os.Remove("test.db")
	assert.NoError(t, database.InitDB("test.db"))
	t.Cleanup(func() {
		db, _ := database.GetDB().DB()
		db.Close()
		os.Remove("test.db")
	})

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	tracker := service.NewStatusTracker()
	modules := service.NewModuleService(caching.NewCache())
	lifecycle := service.NewLifecycleService(supervisor.NewClient(), modules, tracker, hub)

	engine := gin.New()
	NewStreamController(engine.Group("/ws"), hub, lifecycle, modules, &service.ServerService{}, &service.LogService{})

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &streamFixture{server: server, hub: hub, tracker: tracker}
}

func (f *streamFixture) dialModule(t *testing.T, name string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/modules/" + name
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

type statusEvent struct {
	Event string `json:"event"`
	Data  struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"data"`
}

func TestModuleSocketUnknownModuleIsNotTracked(t *testing.T) {
	fixture := newStreamFixture(t)

	conn := fixture.dialModule(t, "ghost")
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg statusEvent
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "statusUpdate", msg.Event)
	assert.Equal(t, "ghost", msg.Data.Name)
	assert.Equal(t, string(supervisor.NotInstalled), msg.Data.Status)

	// the sentinel path never enrolls the socket, so a later disconnect
	// cannot arm the offline watchdog or touch the status cache
	assert.Equal(t, 0, fixture.tracker.SocketCount(service.ModuleNamespace("ghost")))

	conn.Close()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, supervisor.Unknown, fixture.tracker.Status("ghost"))
}

func TestModuleSocketTracksStatusCapableModule(t *testing.T) {
	fixture := newStreamFixture(t)

	db := database.GetDB()
	err := db.Create(&model.Module{
		Name:           "Ollama",
		Module:         "ollama",
		ModuleType:     model.ModuleTypeService,
		SupportsStatus: true,
		UserId:         1,
	}).Error
	assert.NoError(t, err)

	conn := fixture.dialModule(t, "ollama")
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg statusEvent
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "statusUpdate", msg.Event)
	assert.Equal(t, "ollama", msg.Data.Name)

	assert.Equal(t, 1, fixture.tracker.SocketCount(service.ModuleNamespace("ollama")))
}

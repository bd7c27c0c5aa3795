package supervisor

import (
	"context"
	"os"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/vaiolabs/vaio-board/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("VAIO_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.DEBUG)
	os.Exit(m.Run())
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		output string
		want   Status
	}{
		{"ollama                           RUNNING   pid 1234, uptime 0:05:12", Running},
		{"ollama                           STOPPED   Not started", Stopped},
		{"ollama                           STARTING", Starting},
		{"ollama                           STOPPING", Stopping},
		{"ollama                           FATAL     Exited too quickly", Error},
		{"error: could not find program", Error},
		{"", Unknown},
		{"some unrelated text", Unknown},
		{"comfyui: running", Running},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, ParseStatus(c.output), "output: %q", c.output)
	}
}

func TestClientUnavailable(t *testing.T) {
	c := &Client{
		confPath: "/nonexistent/supervisord.conf",
		sockPath: "/nonexistent/supervisor.sock",
		ctlPath:  "supervisorctl",
	}

	assert.False(t, c.Available())
	assert.Equal(t, Simulated, c.Status(context.Background(), "ollama"))
	assert.Equal(t, Simulated, c.Start(context.Background(), "ollama"))
	assert.Equal(t, Stopped, c.Stop(context.Background(), "ollama"))
	assert.NoError(t, c.Reread(context.Background()))
	assert.NoError(t, c.Update(context.Background()))
}

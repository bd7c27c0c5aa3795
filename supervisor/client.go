// Package supervisor is a thin client for the external process supervisor's
// control CLI. It never manages processes itself; it shells out to
// supervisorctl with bounded timeouts and maps the output to Status values.
package supervisor

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/vaiolabs/vaio-board/config"
	"github.com/vaiolabs/vaio-board/logger"
)

const commandTimeout = 5 * time.Second

type Client struct {
	confPath string
	sockPath string
	ctlPath  string
}

func NewClient() *Client {
	return &Client{
		confPath: config.GetSupervisorConfPath(),
		sockPath: config.GetSupervisorSockPath(),
		ctlPath:  config.GetSupervisorctlPath(),
	}
}

// Available reports whether the supervisor control plane is reachable:
// both the config file and the control socket must exist.
func (c *Client) Available() bool {
	if _, err := os.Stat(c.confPath); err != nil {
		return false
	}
	if _, err := os.Stat(c.sockPath); err != nil {
		return false
	}
	return true
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.ctlPath, append([]string{"-c", c.confPath}, args...)...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// Start asks the supervisor to start the named program and returns the
// resulting status. Without a supervisor the start is simulated.
func (c *Client) Start(ctx context.Context, name string) Status {
	if !c.Available() {
		logger.Debugf("supervisor unavailable, simulating start of %s", name)
		return Simulated
	}
	output, err := c.run(ctx, "start", name)
	if err != nil {
		logger.Warningf("supervisorctl start %s failed: %v (%s)", name, err, output)
		return Error
	}
	return c.Status(ctx, name)
}

// Stop asks the supervisor to stop the named program. Without a supervisor
// there is nothing to stop, so the program is reported STOPPED.
func (c *Client) Stop(ctx context.Context, name string) Status {
	if !c.Available() {
		logger.Debugf("supervisor unavailable, treating %s as stopped", name)
		return Stopped
	}
	output, err := c.run(ctx, "stop", name)
	if err != nil {
		logger.Warningf("supervisorctl stop %s failed: %v (%s)", name, err, output)
		return Error
	}
	return c.Status(ctx, name)
}

// Status queries the supervisor for the named program's state.
func (c *Client) Status(ctx context.Context, name string) Status {
	if !c.Available() {
		return Simulated
	}
	output, err := c.run(ctx, "status", name)
	if err != nil {
		// supervisorctl exits non-zero for stopped/fatal programs while
		// still printing the state line, so parse before giving up.
		if status := ParseStatus(output); status != Unknown {
			return status
		}
		logger.Warningf("supervisorctl status %s failed: %v (%s)", name, err, output)
		return Unavailable
	}
	return ParseStatus(output)
}

// Reread reloads the supervisor's program configuration files.
func (c *Client) Reread(ctx context.Context) error {
	if !c.Available() {
		return nil
	}
	output, err := c.run(ctx, "reread")
	if err != nil {
		logger.Warningf("supervisorctl reread failed: %v (%s)", err, output)
	}
	return err
}

// Update applies rereads: starts added programs, stops removed ones.
func (c *Client) Update(ctx context.Context) error {
	if !c.Available() {
		return nil
	}
	output, err := c.run(ctx, "update")
	if err != nil {
		logger.Warningf("supervisorctl update failed: %v (%s)", err, output)
	}
	return err
}

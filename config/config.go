// Package config provides environment-driven configuration for the vAio Board backend.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func init() {
	// Optional .env next to the binary; real environment variables win.
	_ = godotenv.Load()
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("VAIO_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("VAIO_DEBUG") == "true"
}

func GetListen() string {
	return os.Getenv("VAIO_LISTEN")
}

func GetPort() int {
	port, err := strconv.Atoi(os.Getenv("VAIO_PORT"))
	if err != nil || port <= 0 {
		return 1888
	}
	return port
}

func GetWebDomain() string {
	return os.Getenv("VAIO_WEB_DOMAIN")
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("VAIO_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/vaio-board"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("VAIO_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log/vaio"
	}
	return logFolderPath
}

// GetSupervisorConfPath is the supervisord.conf the control CLI is pointed at.
func GetSupervisorConfPath() string {
	conf := os.Getenv("VAIO_SUPERVISOR_CONF")
	if conf == "" {
		conf = "/etc/vaio-board/supervisor/supervisord.conf"
	}
	return conf
}

// GetSupervisorSockPath is the supervisor control socket used to detect availability.
func GetSupervisorSockPath() string {
	sock := os.Getenv("VAIO_SUPERVISOR_SOCK")
	if sock == "" {
		sock = "/etc/vaio-board/supervisor/supervisor.sock"
	}
	return sock
}

// GetSupervisorctlPath is the supervisorctl binary, resolved from PATH when unset.
func GetSupervisorctlPath() string {
	ctl := os.Getenv("VAIO_SUPERVISORCTL")
	if ctl == "" {
		ctl = "supervisorctl"
	}
	return ctl
}

// GetShell is the shell spawned for interactive PTY sessions.
func GetShell() string {
	shell := os.Getenv("VAIO_SHELL")
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}
	return shell
}

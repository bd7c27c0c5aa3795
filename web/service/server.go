package service

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vaiolabs/vaio-board/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Status is the full system snapshot served over /api/system/info and the
// metrics WebSocket streams.
type Status struct {
	T        time.Time `json:"-"`
	Cpu      float64   `json:"cpu"`
	CpuCores int       `json:"cpuCores"`
	CpuModel string    `json:"cpuModel"`
	Mem      struct {
		Current uint64  `json:"current"`
		Total   uint64  `json:"total"`
		Percent float64 `json:"percent"`
	} `json:"mem"`
	Swap struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"swap"`
	Disk struct {
		Current uint64  `json:"current"`
		Total   uint64  `json:"total"`
		Percent float64 `json:"percent"`
	} `json:"disk"`
	Gpu    GpuStatus `json:"gpu"`
	Uptime uint64    `json:"uptime"`
	Loads  []float64 `json:"loads"`
	NetIO  struct {
		Up   uint64 `json:"up"`
		Down uint64 `json:"down"`
	} `json:"netIO"`
	NetTraffic struct {
		Sent uint64 `json:"sent"`
		Recv uint64 `json:"recv"`
	} `json:"netTraffic"`
	Host struct {
		Hostname string `json:"hostname"`
		OS       string `json:"os"`
		Platform string `json:"platform"`
		Arch     string `json:"arch"`
	} `json:"host"`
}

// GpuStatus is what nvidia-smi reports, zeroed when no GPU is present.
type GpuStatus struct {
	Present     bool    `json:"present"`
	Name        string  `json:"name"`
	Utilization float64 `json:"utilization"`
	MemUsed     uint64  `json:"memUsed"`
	MemTotal    uint64  `json:"memTotal"`
	Temperature float64 `json:"temperature"`
}

const nvidiaSmiTimeout = 3 * time.Second

// nvidia-smi csv line: "NVIDIA GeForce RTX 3090, 12, 1024, 24576, 45"
var gpuLineRe = regexp.MustCompile(`^\s*(.+?)\s*,\s*([\d.]+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*([\d.]+)\s*$`)

// ServerService collects system and GPU metrics via gopsutil and nvidia-smi.
type ServerService struct {
	mu           sync.Mutex
	lastStatus   *Status
	noGpu        bool
	lastGpuCheck time.Time
}

// GetStatus collects a fresh system snapshot. Individual collector failures
// degrade to zeros; this method never returns an error.
func (s *ServerService) GetStatus(lastStatus *Status) *Status {
	now := time.Now()
	status := &Status{
		T:        now,
		CpuCores: runtime.NumCPU(),
	}

	if percents, err := cpu.Percent(0, false); err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		status.CpuModel = infos[0].ModelName
	}

	if upTime, err := host.Uptime(); err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	if memInfo, err := mem.VirtualMemory(); err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
		status.Mem.Percent = memInfo.UsedPercent
	}

	if swapInfo, err := mem.SwapMemory(); err != nil {
		logger.Warning("get swap memory failed:", err)
	} else {
		status.Swap.Current = swapInfo.Used
		status.Swap.Total = swapInfo.Total
	}

	if diskInfo, err := disk.Usage("/"); err != nil {
		logger.Warning("get disk usage failed:", err)
	} else {
		status.Disk.Current = diskInfo.Used
		status.Disk.Total = diskInfo.Total
		status.Disk.Percent = diskInfo.UsedPercent
	}

	if avgState, err := load.Avg(); err != nil {
		logger.Warning("get load avg failed:", err)
	} else {
		status.Loads = []float64{avgState.Load1, avgState.Load5, avgState.Load15}
	}

	if ioStats, err := net.IOCounters(false); err != nil {
		logger.Warning("get io counters failed:", err)
	} else if len(ioStats) > 0 {
		ioStat := ioStats[0]
		status.NetTraffic.Sent = ioStat.BytesSent
		status.NetTraffic.Recv = ioStat.BytesRecv

		if lastStatus != nil {
			duration := now.Sub(lastStatus.T)
			seconds := float64(duration) / float64(time.Second)
			if seconds > 0 {
				up := uint64(float64(status.NetTraffic.Sent-lastStatus.NetTraffic.Sent) / seconds)
				down := uint64(float64(status.NetTraffic.Recv-lastStatus.NetTraffic.Recv) / seconds)
				status.NetIO.Up = up
				status.NetIO.Down = down
			}
		}
	}

	if hostInfo, err := host.Info(); err == nil {
		status.Host.Hostname = hostInfo.Hostname
		status.Host.OS = hostInfo.OS
		status.Host.Platform = hostInfo.Platform
	}
	status.Host.Arch = runtime.GOARCH

	status.Gpu = s.GetGpuStatus()

	s.mu.Lock()
	s.lastStatus = status
	s.mu.Unlock()

	return status
}

// LastStatus returns the most recent snapshot, collecting one when none exists.
func (s *ServerService) LastStatus() *Status {
	s.mu.Lock()
	last := s.lastStatus
	s.mu.Unlock()
	if last == nil {
		return s.GetStatus(nil)
	}
	return last
}

// GetGpuStatus queries nvidia-smi with a bounded timeout. A missing binary or
// unparsable output degrades to an absent GPU, never an error.
func (s *ServerService) GetGpuStatus() GpuStatus {
	s.mu.Lock()
	// nvidia-smi absence is sticky for a minute to avoid exec storms
	if s.noGpu && time.Since(s.lastGpuCheck) < time.Minute {
		s.mu.Unlock()
		return GpuStatus{}
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), nvidiaSmiTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,utilization.gpu,memory.used,memory.total,temperature.gpu",
		"--format=csv,noheader,nounits")
	output, err := cmd.Output()
	if err != nil {
		s.mu.Lock()
		s.noGpu = true
		s.lastGpuCheck = time.Now()
		s.mu.Unlock()
		return GpuStatus{}
	}

	line := strings.SplitN(strings.TrimSpace(string(output)), "\n", 2)[0]
	match := gpuLineRe.FindStringSubmatch(line)
	if match == nil {
		logger.Debugf("unparsable nvidia-smi output: %q", line)
		return GpuStatus{}
	}

	gpu := GpuStatus{Present: true, Name: match[1]}
	gpu.Utilization, _ = strconv.ParseFloat(match[2], 64)
	memUsed, _ := strconv.ParseUint(match[3], 10, 64)
	memTotal, _ := strconv.ParseUint(match[4], 10, 64)
	gpu.MemUsed = memUsed * 1024 * 1024
	gpu.MemTotal = memTotal * 1024 * 1024
	gpu.Temperature, _ = strconv.ParseFloat(match[5], 64)

	s.mu.Lock()
	s.noGpu = false
	s.mu.Unlock()
	return gpu
}

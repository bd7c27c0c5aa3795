package job

import (
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web/service"
)

// MetricsSampleJob records one history sample per metric per tick. History is
// fed only here, so the sample rate does not depend on how many graph clients
// are connected.
type MetricsSampleJob struct {
	serverService *service.ServerService
	history       *service.MetricsHistory
}

func NewMetricsSampleJob(serverService *service.ServerService, history *service.MetricsHistory) *MetricsSampleJob {
	return &MetricsSampleJob{serverService: serverService, history: history}
}

func (j *MetricsSampleJob) Run() {
	status := j.serverService.GetStatus(j.serverService.LastStatus())
	for _, metric := range service.HistoryMetrics {
		if err := j.history.LogMetric(metric, service.MetricValue(status, metric)); err != nil {
			logger.Debug("metric history:", err)
		}
	}
}

package job

import (
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web/service"
)

// MetricsResetJob clears the metric history buffers so graphs always show a
// recent window. Scheduled every 5 minutes.
type MetricsResetJob struct {
	history *service.MetricsHistory
}

func NewMetricsResetJob(history *service.MetricsHistory) *MetricsResetJob {
	return &MetricsResetJob{history: history}
}

func (j *MetricsResetJob) Run() {
	j.history.Reset()
	logger.Debug("metric history buffers reset")
}

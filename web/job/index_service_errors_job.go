package job

import (
	"strings"

	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web/service"
)

// IndexServiceErrorsJob scans every service log for new ERROR lines and
// appends them to the indexed error table. Scheduled every minute.
type IndexServiceErrorsJob struct {
	logService *service.LogService
}

func NewIndexServiceErrorsJob(logs *service.LogService) *IndexServiceErrorsJob {
	return &IndexServiceErrorsJob{logService: logs}
}

func (j *IndexServiceErrorsJob) Run() {
	files, err := j.logService.ListLogFiles()
	if err != nil {
		logger.Warning("listing log files for error indexing failed:", err)
		return
	}

	for _, file := range files {
		serviceName := strings.TrimSuffix(file, ".log")
		added, err := j.logService.IndexErrors(serviceName, file)
		if err != nil {
			logger.Warningf("indexing errors from %s failed: %v", file, err)
			continue
		}
		if added > 0 {
			logger.Debugf("indexed %d new errors from %s", added, file)
		}
	}
}

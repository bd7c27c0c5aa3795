package job

import (
	"context"

	"github.com/vaiolabs/vaio-board/web/service"
)

// CheckServiceStatusJob polls the supervisor for every registered service,
// diffs against the last snapshot and broadcasts changes. Scheduled every 5s.
type CheckServiceStatusJob struct {
	lifecycleService *service.LifecycleService
}

func NewCheckServiceStatusJob(lifecycle *service.LifecycleService) *CheckServiceStatusJob {
	return &CheckServiceStatusJob{lifecycleService: lifecycle}
}

func (j *CheckServiceStatusJob) Run() {
	j.lifecycleService.PollOnce(context.Background())
}

package job

import (
	"context"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web/service"
)

// AutostartJob starts every autostart-flagged service once at panel startup.
type AutostartJob struct {
	lifecycleService *service.LifecycleService
}

func NewAutostartJob(lifecycle *service.LifecycleService) *AutostartJob {
	return &AutostartJob{lifecycleService: lifecycle}
}

func (j *AutostartJob) Run() {
	db := database.GetDB()
	if db == nil {
		return
	}

	var services []*model.Service
	err := db.Model(model.Service{}).
		Where("autostart = ?", true).
		Find(&services).
		Error
	if err != nil {
		logger.Warning("autostart query failed:", err)
		return
	}

	for _, svc := range services {
		status := j.lifecycleService.Start(context.Background(), svc.Name)
		logger.Infof("autostart %s -> %s", svc.Name, status)
	}
}

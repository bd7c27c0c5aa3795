package job

import (
	"os"
	"testing"

	"github.com/op/go-logging"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web/service"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	os.Setenv("VAIO_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.DEBUG)
	os.Exit(m.Run())
}

func TestMetricsSampleJobRecordsOneSamplePerTick(t *testing.T) {
	history := service.NewMetricsHistory()
	j := NewMetricsSampleJob(&service.ServerService{}, history)

	j.Run()
	j.Run()

	// exactly one sample per metric per run, regardless of how many graph
	// clients are connected
	for _, metric := range service.HistoryMetrics {
		samples, err := history.History(metric)
		assert.NoError(t, err)
		assert.Len(t, samples, 2, metric)
	}
}

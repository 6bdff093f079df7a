package env

import (
	"fmt"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

// Construction outcomes reported by RecordConstruct.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultFailed      = "failed"
)

var liveHandles atomic.Int64

func init() {
	metrics.NewGauge(`ekv_env_live_handles`, func() float64 {
		return float64(liveHandles.Load())
	})
}

// RecordConstruct counts one construction attempt for the backend with the given result.
func RecordConstruct(backend fmt.Stringer, result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`ekv_env_construct_total{backend=%q,result=%q}`, backend.String(), result)).Inc()
}

// LiveHandles returns the number of constructed handles that were not released yet.
func LiveHandles() int64 {
	return liveHandles.Load()
}

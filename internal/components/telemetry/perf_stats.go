package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

const report_perf_stats = "perf-stats"

var (
	meter               = otel.Meter("ratesetter.perf_stats")
	cpuGauge, _         = meter.Float64Gauge("cpu_usage")
	memoryGauge, _      = meter.Int64Gauge("allocated_mb")
	goroutineGauge, _   = meter.Int64Gauge("goroutine_count")
	liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
)

// InstrumentPerfStats samples process statistics every interval until ctx is
// done, recording them as otel gauges and as counts on tel.
func InstrumentPerfStats(ctx context.Context, interval time.Duration, tel API) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					tel.ReportWarning(report_perf_stats, "read cpu usage", err)
				}

				allocated := int64(memStats.Alloc / 1_000_000)
				goroutines := int64(runtime.NumGoroutine())
				memoryGauge.Record(ctx, allocated)
				goroutineGauge.Record(ctx, goroutines)
				liveObjectsGauge.Record(ctx, int64(memStats.Mallocs)-int64(memStats.Frees))

				tel.ReportCount("allocated_mb", allocated)
				tel.ReportCount("goroutine_count", goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}

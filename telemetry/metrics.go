package telemetry

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-slot labels).
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "holdfast_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.001, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1},
	})

	dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "holdfast_dispatch_duration_seconds",
		Help:    "Time spent in the compute dispatches",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	readbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "holdfast_readback_duration_seconds",
		Help:    "Time spent in GPU readbacks",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	npcCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "holdfast_npc_count",
		Help: "Live NPCs by faction",
	}, []string{"faction"}) // Bounded: "villager", "raider"

	projectileCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "holdfast_projectile_count",
		Help: "Active projectiles",
	})

	gridDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdfast_grid_drops_total",
		Help: "Spatial grid entries dropped past cell capacity",
	})

	readbackStaleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdfast_readback_stale_total",
		Help: "Frames that reused the previous snapshot",
	})
)

// ObserveTick records the per-phase durations of one tick.
func ObserveTick(tick, dispatch, readback time.Duration) {
	tickDuration.Observe(tick.Seconds())
	dispatchDuration.Observe(dispatch.Seconds())
	readbackDuration.Observe(readback.Seconds())
}

// SetPopulation updates the population gauges.
func SetPopulation(villagers, raiders, projectiles int) {
	npcCount.WithLabelValues("villager").Set(float64(villagers))
	npcCount.WithLabelValues("raider").Set(float64(raiders))
	projectileCount.Set(float64(projectiles))
}

// AddGridDrops accumulates grid overflow counts.
func AddGridDrops(n int64) {
	if n > 0 {
		gridDropsTotal.Add(float64(n))
	}
}

// IncReadbackStale counts one stale frame.
func IncReadbackStale() {
	readbackStaleTotal.Inc()
}

// ServeMetrics exposes /metrics on addr in a background goroutine. The
// listener lives outside the tick; the core never blocks on it.
func ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
}

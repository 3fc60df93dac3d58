package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoppxi/ddclight/pkg/displayinfo"
)

// Collector tracks the controlled monitor for the daemon's /metrics endpoint.
type Collector struct {
	registry *prometheus.Registry

	raw     prometheus.Gauge
	max     prometheus.Gauge
	percent prometheus.Gauge
	present prometheus.Gauge
	writes  *prometheus.CounterVec
	rescans prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		raw: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ddclight_brightness_raw",
			Help: "Current brightness in device units",
		}),
		max: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ddclight_brightness_max",
			Help: "Maximum brightness in device units",
		}),
		percent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ddclight_brightness_percent",
			Help: "Current brightness in percent",
		}),
		present: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ddclight_device_present",
			Help: "Whether a controllable monitor is selected (1=yes, 0=no)",
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ddclight_writes_total",
			Help: "Brightness writes by result",
		}, []string{"result"}),
		rescans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ddclight_rescans_total",
			Help: "Monitor discovery runs",
		}),
	}

	c.registry.MustRegister(c.raw, c.max, c.percent, c.present, c.writes, c.rescans)
	return c
}

// ObserveState records the monitor state; nil means no monitor is selected.
func (c *Collector) ObserveState(info *displayinfo.DisplayInfo) {
	if info == nil {
		c.ObserveNoDevice()
		return
	}
	c.ObserveDevice(info.Current, info.Max, info.Level)
}

func (c *Collector) ObserveDevice(current, max, percent uint32) {
	c.present.Set(1)
	c.raw.Set(float64(current))
	c.max.Set(float64(max))
	c.percent.Set(float64(percent))
}

func (c *Collector) ObserveNoDevice() {
	c.present.Set(0)
	c.raw.Set(0)
	c.max.Set(0)
	c.percent.Set(0)
}

func (c *Collector) ObserveWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.writes.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveRescan() {
	c.rescans.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

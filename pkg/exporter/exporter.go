// Package exporter publishes sampler readings as Prometheus gauges and,
// optionally, answers channel method calls over a websocket.
package exporter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/perfmon/pkg/channel"
	"github.com/danpilch/perfmon/pkg/reading"
)

const namespace = "perfmon"

// Sampler is the set of readings exported on every scrape.
type Sampler interface {
	MemoryUsage() reading.Bytes
	CPUUsage() reading.Percent
	TotalMemory() reading.Bytes
	MemoryInfo() reading.Memory
	PerCoreCPU() []reading.Percent
}

// Collector reads the sampler on each Collect. Nothing is cached between
// scrapes.
type Collector struct {
	sampler Sampler

	processMemory *prometheus.Desc
	cpuUsage      *prometheus.Desc
	cpuWindow     *prometheus.Desc
	coreUsage     *prometheus.Desc
	totalMemory   *prometheus.Desc
	availMemory   *prometheus.Desc
	usedPercent   *prometheus.Desc
	available     *prometheus.Desc
}

// NewCollector creates a collector for s.
func NewCollector(s Sampler) *Collector {
	return &Collector{
		sampler: s,
		processMemory: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "process", "memory_bytes"),
			"Proportional set size of the sampled process, or native heap size on fallback.",
			[]string{"source", "status"}, nil,
		),
		cpuUsage: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cpu", "usage_percent"),
			"Aggregate CPU utilization.",
			[]string{"status"}, nil,
		),
		cpuWindow: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cpu", "window_seconds"),
			"Sampling window of the CPU reading; zero for since-boot readings.",
			nil, nil,
		),
		coreUsage: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cpu", "core_usage_percent"),
			"Since-boot utilization per core.",
			[]string{"core"}, nil,
		),
		totalMemory: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "memory", "total_bytes"),
			"Physical memory.",
			[]string{"source", "status"}, nil,
		),
		availMemory: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "memory", "available_bytes"),
			"Available system memory.",
			nil, nil,
		),
		usedPercent: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "memory", "used_percent"),
			"Used share of system memory.",
			nil, nil,
		),
		available: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "reading", "available"),
			"1 when the reading was produced by any source, 0 when unavailable.",
			[]string{"reading"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.processMemory
	ch <- c.cpuUsage
	ch <- c.cpuWindow
	ch <- c.coreUsage
	ch <- c.totalMemory
	ch <- c.availMemory
	ch <- c.usedPercent
	ch <- c.available
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	mem := c.sampler.MemoryUsage()
	ch <- prometheus.MustNewConstMetric(c.processMemory, prometheus.GaugeValue,
		float64(mem.Value), mem.Source, string(mem.Status))
	ch <- availability(c.available, "memory_usage", mem.Available())

	cpu := c.sampler.CPUUsage()
	ch <- prometheus.MustNewConstMetric(c.cpuUsage, prometheus.GaugeValue, cpu.Value, string(cpu.Status))
	ch <- prometheus.MustNewConstMetric(c.cpuWindow, prometheus.GaugeValue, cpu.Window.Seconds())
	ch <- availability(c.available, "cpu_usage", cpu.Available())

	for _, core := range c.sampler.PerCoreCPU() {
		ch <- prometheus.MustNewConstMetric(c.coreUsage, prometheus.GaugeValue, core.Value, reading.CoreName(core.Source))
	}

	total := c.sampler.TotalMemory()
	ch <- prometheus.MustNewConstMetric(c.totalMemory, prometheus.GaugeValue,
		float64(total.Value), total.Source, string(total.Status))
	ch <- availability(c.available, "total_memory", total.Available())

	info := c.sampler.MemoryInfo()
	if info.Total.Available() {
		ch <- prometheus.MustNewConstMetric(c.availMemory, prometheus.GaugeValue, float64(info.Available.Value))
		ch <- prometheus.MustNewConstMetric(c.usedPercent, prometheus.GaugeValue, info.PercentUsed.Value)
	}
	ch <- availability(c.available, "memory_info", info.Total.Available())
}

func availability(desc *prometheus.Desc, name string, ok bool) prometheus.Metric {
	v := 0.0
	if ok {
		v = 1
	}
	return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, name)
}

// Exporter serves the collector over HTTP.
type Exporter struct {
	registry *prometheus.Registry
	logger   *logrus.Logger
	channel  *channel.Channel
	upgrader websocket.Upgrader
}

// New creates an exporter with its own registry holding the sampler
// collector plus the Go runtime and process collectors.
func New(s Sampler, logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(s))
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Exporter{
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeChannel exposes ch on /ws. Each text message is one JSON request and
// gets one JSON response, in order.
func (e *Exporter) ServeChannel(ch *channel.Channel) {
	e.channel = ch
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the HTTP handler with /metrics and /health, plus /ws when
// a channel is served.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if e.channel != nil {
		mux.HandleFunc("/ws", e.handleWebSocket)
	}
	return mux
}

func (e *Exporter) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := e.logger.WithField("remote", r.RemoteAddr)
	log.Debug("Channel client connected")

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("Channel client dropped")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := conn.WriteJSON(e.channel.Handle(r.Context(), data)); err != nil {
			log.WithError(err).Warn("Writing channel response failed")
			return
		}
	}
}

// Run serves on addr until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      e.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.WithField("addr", addr).Info("Serving metrics")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		e.logger.WithError(err).Error("Error shutting down metrics server")
		return err
	}
	return nil
}

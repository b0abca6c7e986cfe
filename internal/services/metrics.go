package services

import (
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	Registry *prometheus.Registry

	planBuild    prometheus.Histogram
	planCache    *prometheus.CounterVec
	upstream     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		planBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sections_plan_build_seconds",
			Help:    "Time taken to build a render plan",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		planCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sections_plan_cache_total",
			Help: "Render plan cache lookups",
		}, []string{"result"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sections_upstream_requests_total",
			Help: "Requests sent to the content API",
		}, []string{"op", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sections_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "status"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.planBuild, m.planCache, m.upstream, m.httpRequests,
	)
	return m
}

func (m *Metrics) ObservePlanBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.planBuild.Observe(d.Seconds())
}

// ObservePlanCache records "hit", "miss" or "bypass".
func (m *Metrics) ObservePlanCache(result string) {
	if m == nil {
		return
	}
	m.planCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveUpstream(op, outcome string) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

type HealthSample struct {
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	ProcessCpuLoad    float64   `json:"processCpuLoad"`
	SystemCpuLoad     float64   `json:"systemCpuLoad"`
}

func CaptureHealth() HealthSample {
	sample := HealthSample{CapturedAt: time.Now().UTC()}
	if memStat, err := mem.VirtualMemory(); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, _ := proc.MemoryInfo(); rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		cpuPerc, _ := proc.CPUPercent()
		sample.ProcessCpuLoad = cpuPerc / 100.0
	}
	if sysCPU, _ := cpu.Percent(0, false); len(sysCPU) > 0 {
		sample.SystemCpuLoad = sysCPU[0] / 100.0
	}
	return sample
}

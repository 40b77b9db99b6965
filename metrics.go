package cs4teachers

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsPath      = "/metrics"
	metricsNamespace = "cs4teachers"
)

// siteMetrics holds the Prometheus collectors of one App. Every App owns its
// registry so several can share a process.
type siteMetrics struct {
	registry      *prometheus.Registry
	adminChanges  *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec
	cacheLoads    prometheus.Counter
}

func newSiteMetrics() *siteMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &siteMetrics{
		registry: reg,
		adminChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "admin_changes_total",
				Help:      "Records added, changed or deleted through the admin",
			},
			[]string{"kind", "action"},
		),
		loginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "admin_login_attempts_total",
				Help:      "Admin login attempts by result (ok, failed, limited)",
			},
			[]string{"result"},
		),
		cacheLoads: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_loads_total",
			Help:      "Reloads of the public content cache",
		}),
	}
}

// watchStore exports the connection pool statistics of s.
func (m *siteMetrics) watchStore(s *Store) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(s.db, "cs4teachers"))
}

func (m *siteMetrics) middleware() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metricsNamespace,
		Subsystem:  "http",
		Registerer: m.registry,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == metricsPath || isAssetPath(path)
		},
	})
}

func (m *siteMetrics) handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: m.registry})
}

package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsStarted counts realtime sessions opened against the provider.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "companiond_sessions_started_total",
		Help: "Number of realtime voice sessions started.",
	})

	// SessionsCompleted counts sessions that reached the finished state.
	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "companiond_sessions_completed_total",
		Help: "Number of realtime voice sessions that finished.",
	})

	// SessionRecordWrites counts session-history writes, by outcome.
	SessionRecordWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "companiond_session_record_writes_total",
		Help: "Session history write attempts.",
	}, []string{"outcome"})

	// CompanionsCreated counts companion personas created.
	CompanionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "companiond_companions_created_total",
		Help: "Number of companions created.",
	})
)

// Register mounts the prometheus scrape endpoint.
func Register(engine *gin.Engine, prefix string) {
	if prefix == "" {
		prefix = "/metrics"
	}
	engine.GET(prefix, gin.WrapH(promhttp.Handler()))
}

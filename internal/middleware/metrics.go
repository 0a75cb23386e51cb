package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PositionShifts counts position-reorder transactions by container kind
	// and outcome.
	PositionShifts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_position_shifts_total",
		Help: "Total number of position-shift transactions by container and outcome",
	}, []string{"container", "outcome"})

	// LoginAttempts counts two-factor login transitions by step and outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_login_attempts_total",
		Help: "Total number of login attempts by step and outcome",
	}, []string{"step", "outcome"})
)

// InitMetrics builds the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

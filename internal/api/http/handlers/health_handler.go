package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-auth-service/internal/observability"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
	metrics     *observability.Metrics
	started     time.Time
}

// NewHealthHandler returns a new handler instance. Nil dependencies are
// skipped, so a memory-backed deployment reports ready without postgres.
func NewHealthHandler(serviceName, version string, metrics *observability.Metrics, deps map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(deps))
	for name, dep := range deps {
		if dep != nil {
			active[name] = dep
		}
	}
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		deps:        active,
		metrics:     metrics,
		started:     time.Now(),
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	depStatus, ready := h.check(c.UserContext())
	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}
	return unavailable(c, depStatus)
}

// Detailed reports readiness together with a metrics snapshot.
func (h *HealthHandler) Detailed(c *fiber.Ctx) error {
	depStatus, ready := h.check(c.UserContext())
	if !ready {
		return unavailable(c, depStatus)
	}
	return c.JSON(fiber.Map{
		"status":         "ready",
		"service":        h.serviceName,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"dependencies":   depStatus,
		"metrics":        h.metrics.Snapshot(),
	})
}

func (h *HealthHandler) check(parent context.Context) (fiber.Map, bool) {
	ctx, cancel := context.WithTimeout(parent, readinessTimeout)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
			continue
		}
		depStatus[name] = "ok"
	}
	return depStatus, ready
}

func unavailable(c *fiber.Ctx, depStatus fiber.Map) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"status":  fiber.StatusServiceUnavailable,
			"details": depStatus,
		},
	})
}

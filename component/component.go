package component

import "context"

// Component is a long-lived part of a command: started once, stopped once,
// asked for health in between. Names must be unique within a Registry.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

type HealthStatus string

const (
	StatusHealthy HealthStatus = "healthy"
	// StatusDegraded still serves traffic; readiness reports it.
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's answer to a health probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Overall is the worst status in results. No results is healthy.
func Overall(results []Health) HealthStatus {
	worst := StatusHealthy
	for _, h := range results {
		if rank(h.Status) > rank(worst) {
			worst = h.Status
		}
	}
	return worst
}

func rank(s HealthStatus) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	}
	return 2
}

// Description is the startup log line of a Describable component. An empty
// Name falls back to the component's Name.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable components are listed by Registry.LogSummary.
type Describable interface {
	Describe() Description
}

// Route is one HTTP route listed by Registry.LogSummary.
type Route struct {
	Method, Path, Handler string
}

// RouteProvider components have their routes listed by Registry.LogSummary.
type RouteProvider interface {
	Routes() []Route
}

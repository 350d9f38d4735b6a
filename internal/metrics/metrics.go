// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// User lifecycle metrics
	IncUserCreated()
	IncUserUpdated()
	IncUserDeleted()

	// Event channel metrics
	IncEventPublished(status string) // status: "success" or "dropped"
}

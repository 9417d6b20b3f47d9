// Package telemetry publishes structured lifecycle events for a pabotd run:
// the run itself starting/completing/failing, and each scheduled item
// starting/completing/failing/being skipped. It is the async event-bus half
// of the teacher's four-pillar telemetry system (logging/tracing/metrics/
// events) — pabotd's process-level logging goes straight through zerolog
// (see cmd/pabotd/main.go), so only the event-publishing pillar survived the
// trip into this domain.
package telemetry

import "time"

// EventsConfig configures the event publishing system.
type EventsConfig struct {
	// Enabled controls whether event publishing is active.
	Enabled bool

	// BufferSize is the size of the event buffer.
	BufferSize int

	// FlushInterval is how often to flush buffered events.
	FlushInterval time.Duration

	// MaxBatchSize is the maximum number of events to publish in one batch.
	MaxBatchSize int

	// EnableAsync enables asynchronous event publishing.
	EnableAsync bool
}

// DefaultEventsConfig returns the same buffering defaults pabotd's own Run
// uses, available to callers (the "lib" subcommand, tests) that want the
// standard shape without repeating it.
func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		Enabled:       true,
		BufferSize:    256,
		FlushInterval: time.Second,
		MaxBatchSize:  64,
		EnableAsync:   true,
	}
}

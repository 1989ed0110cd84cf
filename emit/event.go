package emit

// Kind labels what an Event represents.
type Kind string

const (
	EventConnect    Kind = "connect"
	EventDisconnect Kind = "disconnect"
	EventWrite      Kind = "write"
	EventCheckpoint Kind = "checkpoint"
	EventError      Kind = "error"
	EventStop       Kind = "stop"
)

// Event is an observability event emitted during pipeline execution.
//
// Events provide insight into runtime behavior: connection attempts,
// disconnects, writes, checkpoint saves, and errors.
type Event struct {
	// PipelineID identifies the pipeline that emitted this event.
	PipelineID string

	// ResourceName identifies which resource emitted this event. Empty
	// for pipeline-level events (connect, disconnect, stop).
	ResourceName string

	// Kind classifies the event.
	Kind Kind

	// Detail is a human-readable description of the event.
	Detail string

	// Meta contains additional structured data specific to this event.
	Meta map[string]any
}

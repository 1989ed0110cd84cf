// Package ingesterr defines the typed error kinds raised by the ingestion
// runtime. Every kind carries enough context (resource name, underlying
// cause) to be logged or matched on without a type switch over strings.
package ingesterr

import "fmt"

// DuplicateResourceError is raised synchronously at pipeline construction
// when two resources share a name.
type DuplicateResourceError struct {
	Name string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("ingestrt: duplicate resource %q", e.Name)
}

// NewDuplicateResource constructs a DuplicateResourceError.
func NewDuplicateResource(name string) error {
	return &DuplicateResourceError{Name: name}
}

// InvalidProcessOutputError is raised when a resource's process function
// returns a malformed shape (a non-list or non-object records element).
type InvalidProcessOutputError struct {
	Resource string
	Reason   string
}

func (e *InvalidProcessOutputError) Error() string {
	return fmt.Sprintf("ingestrt: resource %q: invalid process output: %s", e.Resource, e.Reason)
}

// NewInvalidProcessOutput constructs an InvalidProcessOutputError.
func NewInvalidProcessOutput(resource, reason string) error {
	return &InvalidProcessOutputError{Resource: resource, Reason: reason}
}

// UnsupportedDestinationError is raised when a destination exposes neither
// the table nor the stream capability.
type UnsupportedDestinationError struct {
	Resource string
}

func (e *UnsupportedDestinationError) Error() string {
	return fmt.Sprintf("ingestrt: resource %q: destination supports neither table nor stream writes", e.Resource)
}

// NewUnsupportedDestination constructs an UnsupportedDestinationError.
func NewUnsupportedDestination(resource string) error {
	return &UnsupportedDestinationError{Resource: resource}
}

// InvalidRecordShapeError is raised when a record is not a plain keyed
// container.
type InvalidRecordShapeError struct {
	Resource string
	Index    int
}

func (e *InvalidRecordShapeError) Error() string {
	return fmt.Sprintf("ingestrt: resource %q: record %d is not a plain keyed container", e.Resource, e.Index)
}

// NewInvalidRecordShape constructs an InvalidRecordShapeError.
func NewInvalidRecordShape(resource string, index int) error {
	return &InvalidRecordShapeError{Resource: resource, Index: index}
}

// TableWriteFailedError wraps a failure validating or inserting a batch of
// records into a table destination.
type TableWriteFailedError struct {
	Resource string
	Cause    error
}

func (e *TableWriteFailedError) Error() string {
	return fmt.Sprintf("ingestrt: resource %q: table write failed: %v", e.Resource, e.Cause)
}

func (e *TableWriteFailedError) Unwrap() error { return e.Cause }

// NewTableWriteFailed constructs a TableWriteFailedError.
func NewTableWriteFailed(resource string, cause error) error {
	return &TableWriteFailedError{Resource: resource, Cause: cause}
}

// StreamWriteFailedError wraps a failure sending a record to a stream
// destination.
type StreamWriteFailedError struct {
	Resource string
	Cause    error
}

func (e *StreamWriteFailedError) Error() string {
	return fmt.Sprintf("ingestrt: resource %q: stream write failed: %v", e.Resource, e.Cause)
}

func (e *StreamWriteFailedError) Unwrap() error { return e.Cause }

// NewStreamWriteFailed constructs a StreamWriteFailedError.
func NewStreamWriteFailed(resource string, cause error) error {
	return &StreamWriteFailedError{Resource: resource, Cause: cause}
}

// CheckpointSaveFailedError wraps a checkpoint store rejection on save.
type CheckpointSaveFailedError struct {
	PipelineID string
	Cause      error
}

func (e *CheckpointSaveFailedError) Error() string {
	return fmt.Sprintf("ingestrt: pipeline %q: checkpoint save failed: %v", e.PipelineID, e.Cause)
}

func (e *CheckpointSaveFailedError) Unwrap() error { return e.Cause }

// NewCheckpointSaveFailed constructs a CheckpointSaveFailedError.
func NewCheckpointSaveFailed(pipelineID string, cause error) error {
	return &CheckpointSaveFailedError{PipelineID: pipelineID, Cause: cause}
}

// DisconnectError carries the (optional) cause of a source losing its live
// connection, as reported via a source's onDisconnect callback.
type DisconnectError struct {
	Cause error
}

func (e *DisconnectError) Error() string {
	if e.Cause == nil {
		return "ingestrt: source disconnected"
	}
	return fmt.Sprintf("ingestrt: source disconnected: %v", e.Cause)
}

func (e *DisconnectError) Unwrap() error { return e.Cause }

// NewDisconnect constructs a DisconnectError. cause may be nil.
func NewDisconnect(cause error) error {
	return &DisconnectError{Cause: cause}
}

// ConnectError wraps a source.Start failure. To the runtime it means only
// "retry with backoff" — the runtime never classifies a connect failure as fatal on the caller's
// behalf; operators distinguish the two by inspecting Cause via onError.
type ConnectError struct {
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("ingestrt: connect failed: %v", e.Cause)
}

func (e *ConnectError) Unwrap() error { return e.Cause }

// NewConnectFailed constructs a ConnectError.
func NewConnectFailed(cause error) error {
	return &ConnectError{Cause: cause}
}

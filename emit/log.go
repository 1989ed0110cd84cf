package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes structured log output to an io.Writer.
//
// Supports two output modes:
//   - Text (default): human-readable, key=value pairs.
//   - JSON: one JSON object per line (JSONL).
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter returns a LogEmitter writing to writer. A nil writer
// defaults to os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		PipelineID   string         `json:"pipelineID"`
		ResourceName string         `json:"resourceName,omitempty"`
		Kind         Kind           `json:"kind"`
		Detail       string         `json:"detail,omitempty"`
		Meta         map[string]any `json:"meta,omitempty"`
	}{
		PipelineID:   event.PipelineID,
		ResourceName: event.ResourceName,
		Kind:         event.Kind,
		Detail:       event.Detail,
		Meta:         event.Meta,
	})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] pipeline=%s resource=%s %s",
		event.Kind, event.PipelineID, event.ResourceName, event.Detail)
	if len(event.Meta) > 0 {
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes events in order, one Emit call per event.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes directly, with no internal buffer.
func (l *LogEmitter) Flush(_ context.Context) error { return nil }

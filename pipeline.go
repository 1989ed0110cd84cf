package ingestrt

import (
	"github.com/corestream/ingestrt/checkpoint"
	"github.com/corestream/ingestrt/emit"
	"github.com/corestream/ingestrt/metrics"
	"github.com/corestream/ingestrt/sink"
)

// Option configures a Pipeline at construction time.
type Option func(*pipelineConfig) error

// pipelineConfig collects options before they're applied, mirroring the
// engine's own engineConfig indirection. Define applies options in order
// and stops at the first one that returns an error; it runs no further
// validation once every option has run.
type pipelineConfig struct {
	reconnectPolicy Policy
	keyPrefix       string
	onError         func(error)
	emitter         emit.Emitter
	metrics         *metrics.Metrics
}

// WithReconnectPolicy overrides DefaultPolicy() for backoff between
// reconnect attempts.
func WithReconnectPolicy(p Policy) Option {
	return func(cfg *pipelineConfig) error {
		cfg.reconnectPolicy = p
		return nil
	}
}

// WithCheckpointStoreKeyPrefix namespaces checkpoint store keys for this
// pipeline, so multiple deployments can share one store.
func WithCheckpointStoreKeyPrefix(prefix string) Option {
	return func(cfg *pipelineConfig) error {
		cfg.keyPrefix = prefix
		return nil
	}
}

// WithOnError registers a callback invoked for every non-cooperative
// termination cause: source start failures, post-disconnect errors,
// drain errors, and source stop errors. Never called for a user-initiated
// Stop().
func WithOnError(fn func(error)) Option {
	return func(cfg *pipelineConfig) error {
		cfg.onError = fn
		return nil
	}
}

// WithEmitter attaches an observability backend. Defaults to
// emit.NewNullEmitter() if never set.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *pipelineConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics attaches a Prometheus metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *pipelineConfig) error {
		cfg.metrics = m
		return nil
	}
}

// Pipeline is the top-level entity (§3): one source bound to a resource
// set, a checkpoint store, and a reconnect policy.
//
// Construct one with Define, then call Start to obtain a PipelineControl.
type Pipeline struct {
	id     string
	source Source
	reg    *registry
	store  checkpoint.Store
	writer *sink.Writer
	cfg    pipelineConfig
}

// Define builds a Pipeline from an id, a source, and its resources.
// Fails synchronously with DuplicateResource if two resources share a
// name — the pipeline cannot be started in that case.
func Define(id string, source Source, store checkpoint.Store, resources []Resource, opts ...Option) (*Pipeline, error) {
	reg, err := newRegistry(resources)
	if err != nil {
		return nil, err
	}

	cfg := pipelineConfig{
		reconnectPolicy: DefaultPolicy(),
		emitter:         emit.NewNullEmitter(),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		id:     id,
		source: source,
		reg:    reg,
		store:  store,
		writer: sink.NewWriter(),
		cfg:    cfg,
	}, nil
}

func (p *Pipeline) checkpointKey() string {
	if p.cfg.keyPrefix == "" {
		return p.id
	}
	return p.cfg.keyPrefix + ":" + p.id
}

func (p *Pipeline) reportError(err error) {
	if p.cfg.onError != nil {
		p.cfg.onError(err)
	}
}

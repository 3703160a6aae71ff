// Package detector provides an OpenTelemetry resource detector for the
// Instana agent. At detection time it probes the agent's local discovery
// endpoint and, when the agent answers, contributes the process id and the
// agent's instance id as resource attributes. When the agent is absent,
// unreachable, or slow, detection yields an empty resource — it never fails
// or blocks the host application beyond a bounded window.
package detector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// AgentDetector probes a local Instana agent for process identity.
// It implements go.opentelemetry.io/otel/sdk/resource.Detector.
type AgentDetector struct {
	config *Config
}

// Compile-time check that AgentDetector satisfies the detector contract
var _ resource.Detector = (*AgentDetector)(nil)

// New creates an AgentDetector. Without options the agent location and
// timeouts come from the environment, falling back to the documented
// defaults (localhost:42699, 3s per attempt, 90s overall).
func New(opts ...Option) (*AgentDetector, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &AgentDetector{config: cfg}, nil
}

// WithAgentDetector returns a resource.Option that plugs agent detection
// into resource.New. Option errors surface at detection time as an empty
// resource, keeping resource construction infallible.
func WithAgentDetector(opts ...Option) resource.Option {
	d, err := New(opts...)
	if err != nil {
		return resource.WithDetectors(failedDetector{})
	}
	return resource.WithDetectors(d)
}

// Detect probes the agent and maps its reply to resource attributes.
//
// The returned resource is either fully populated (process.pid and
// service.instance.id) or empty; the error is always nil because an
// unreachable agent must not abort resource detection for the host
// application. The whole call is bounded by the configured retry timeout
// or the caller's context, whichever is tighter.
func (d *AgentDetector) Detect(ctx context.Context) (*resource.Resource, error) {
	cfg := d.config
	if cfg == nil {
		cfg = DefaultConfig()
	}

	probeID := uuid.NewString()
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, cfg.RetryTimeout)
	defer cancel()

	reply, err := newProber(cfg).discover(ctx, cfg.DiscoveryURL())
	if err != nil {
		cfg.Logger.Debug("Agent discovery concluded without an agent", map[string]interface{}{
			"probe_id": probeID,
			"url":      cfg.DiscoveryURL(),
			"elapsed":  time.Since(started).String(),
			"reason":   err.Error(),
		})
		return resource.Empty(), nil
	}

	cfg.Logger.Info("Agent discovered", map[string]interface{}{
		"probe_id":   probeID,
		"url":        cfg.DiscoveryURL(),
		"elapsed":    time.Since(started).String(),
		"pid":        reply.PID,
		"agent_uuid": reply.AgentUUID,
	})

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ProcessPIDKey.Int(reply.PID),
		semconv.ServiceInstanceIDKey.String(reply.AgentUUID),
	), nil
}

// failedDetector stands in when detector options were invalid. It keeps
// the resource.Option path infallible by detecting nothing.
type failedDetector struct{}

func (failedDetector) Detect(context.Context) (*resource.Resource, error) {
	return resource.Empty(), nil
}

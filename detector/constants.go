package detector

import "time"

// Environment Variables - Instana Agent Protocol
const (
	EnvAgentHost    = "INSTANA_AGENT_HOST"       // Agent hostname override
	EnvAgentPort    = "INSTANA_AGENT_PORT"       // Agent port override
	EnvAgentTimeout = "INSTANA_AGENT_TIMEOUT_MS" // Per-attempt timeout in milliseconds
	EnvRetryTimeout = "INSTANA_RETRY_TIMEOUT_MS" // Overall detection bound in milliseconds
)

// Agent Discovery Defaults
const (
	// DefaultAgentHost is where the Instana agent listens when co-located
	// with the application process
	DefaultAgentHost = "localhost"

	// DefaultAgentPort is the Instana agent's standard discovery port
	DefaultAgentPort = 42699

	// DefaultTimeout bounds a single discovery request
	DefaultTimeout = 3 * time.Second

	// DefaultRetryTimeout bounds the whole detection attempt, including
	// any retries of transient failures
	DefaultRetryTimeout = 90 * time.Second

	// DiscoveryPath is the agent's discovery endpoint. The agent keys its
	// discovery handlers by plugin name, hence the nodejs segment.
	DiscoveryPath = "/com.instana.plugin.nodejs.discovery"
)

// Probe retry tuning. The overall detection window is enforced by a context
// deadline, so these only shape how attempts are spaced inside it.
const (
	probeRetryMax     = 10
	probeRetryWaitMin = 100 * time.Millisecond
	probeRetryWaitMax = 2 * time.Second
)

package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// agentReply is the agent's discovery response. It only lives for the
// duration of one request/response cycle.
type agentReply struct {
	PID       int    `json:"pid"`
	AgentUUID string `json:"agentUuid"`
}

// prober issues the discovery call against the agent
type prober struct {
	client *http.Client
	logger Logger
}

// newProber builds a prober from the resolved config. Unless the config
// overrides the HTTP client, a retrying client is used: transient transport
// errors and 5xx responses are re-attempted with backoff, each attempt
// bounded by cfg.Timeout, all of them by the caller's context deadline.
func newProber(cfg *Config) *prober {
	client := cfg.HTTPClient
	if client == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = probeRetryMax
		rc.RetryWaitMin = probeRetryWaitMin
		rc.RetryWaitMax = probeRetryWaitMax
		rc.HTTPClient.Timeout = cfg.Timeout
		rc.Logger = nil // suppress default logging
		client = rc.StandardClient()
	}
	return &prober{
		client: client,
		logger: cfg.Logger,
	}
}

// discover performs the discovery call and returns the agent's reply.
// Every failure mode collapses to an error wrapping one of the package
// sentinels; the caller treats all of them as "agent absent".
func (p *prober) discover(ctx context.Context, url string) (*agentReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAgentNotReachable, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrDetectionTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrAgentNotReachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAgentResponse, resp.StatusCode)
	}

	var reply agentReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return &reply, nil
}

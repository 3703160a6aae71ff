package detector

import "errors"

// Standard sentinel errors for comparison using errors.Is().
// They classify why a probe concluded "agent absent"; none of them ever
// escape Detect, which reports absence as an empty resource.
var (
	// Transport-level failure (connection refused, DNS, reset)
	ErrAgentNotReachable = errors.New("agent not reachable")

	// Agent answered with a non-success status
	ErrAgentResponse = errors.New("agent returned unexpected response")

	// Agent reply could not be decoded
	ErrMalformedReply = errors.New("malformed agent reply")

	// Detection window elapsed before a definitive outcome
	ErrDetectionTimeout = errors.New("agent detection timed out")
)

// Command agent-probe runs one agent detection and prints the outcome.
// It gives operators the same view the resource detector has: either the
// attributes the agent reported, or confirmation that the agent is absent.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/instana/otel-agent-detector/detector"
)

func main() {
	host := flag.String("host", "", "agent host (default: INSTANA_AGENT_HOST or localhost)")
	port := flag.Int("port", 0, "agent port (default: INSTANA_AGENT_PORT or 42699)")
	timeout := flag.Duration("timeout", 0, "per-attempt timeout (default: 3s)")
	retryTimeout := flag.Duration("retry-timeout", 0, "overall detection bound (default: 90s)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "INFO"
	if *verbose {
		level = "DEBUG"
	}

	opts := []detector.Option{
		detector.WithLogger(detector.NewStructuredLogger(level)),
	}
	if *host != "" {
		opts = append(opts, detector.WithAgentHost(*host))
	}
	if *port != 0 {
		opts = append(opts, detector.WithAgentPort(*port))
	}
	if *timeout != 0 {
		opts = append(opts, detector.WithTimeout(*timeout))
	}
	if *retryTimeout != 0 {
		opts = append(opts, detector.WithRetryTimeout(*retryTimeout))
	}

	d, err := detector.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	started := time.Now()
	res, _ := d.Detect(context.Background())

	attrs := res.Attributes()
	if len(attrs) == 0 {
		fmt.Printf("agent absent (%s)\n", time.Since(started).Round(time.Millisecond))
		os.Exit(1)
	}

	fmt.Printf("agent found (%s)\n", time.Since(started).Round(time.Millisecond))
	for _, kv := range attrs {
		fmt.Printf("  %s=%s\n", kv.Key, kv.Value.Emit())
	}
}

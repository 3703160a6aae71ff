package detector

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// serverHostPort extracts the host and port a test server listens on
func serverHostPort(t *testing.T, ts *httptest.Server) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// newTestDetector points a detector at a test server with tight timeouts
func newTestDetector(t *testing.T, ts *httptest.Server, extra ...Option) *AgentDetector {
	t.Helper()
	host, port := serverHostPort(t, ts)
	opts := append([]Option{
		WithAgentHost(host),
		WithAgentPort(port),
		WithTimeout(250 * time.Millisecond),
		WithRetryTimeout(1 * time.Second),
	}, extra...)
	d, err := New(opts...)
	require.NoError(t, err)
	return d
}

func TestDetectSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, DiscoveryPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pid": 123, "agentUuid": "14:7d:da:ff:fe:e4:08:d5"}`))
	}))
	defer ts.Close()

	res, err := newTestDetector(t, ts).Detect(context.Background())
	require.NoError(t, err)

	expected := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ProcessPIDKey.Int(123),
		semconv.ServiceInstanceIDKey.String("14:7d:da:ff:fe:e4:08:d5"),
	)
	assert.Equal(t, expected, res)
}

// TestDetectEnvironmentOverrides verifies that detection honors host/port
// overrides supplied through the environment rather than options
func TestDetectEnvironmentOverrides(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pid": 222, "agentUuid": "14:7d:da:ff:fe:e4:08:d5"}`))
	}))
	defer ts.Close()

	host, port := serverHostPort(t, ts)
	t.Setenv(EnvAgentHost, host)
	t.Setenv(EnvAgentPort, strconv.Itoa(port))
	t.Setenv(EnvRetryTimeout, "1000")

	d, err := New()
	require.NoError(t, err)

	res, err := d.Detect(context.Background())
	require.NoError(t, err)

	attrs := res.Set()
	pid, ok := attrs.Value(semconv.ProcessPIDKey)
	require.True(t, ok)
	assert.Equal(t, int64(222), pid.AsInt64())
	instanceID, ok := attrs.Value(semconv.ServiceInstanceIDKey)
	require.True(t, ok)
	assert.Equal(t, "14:7d:da:ff:fe:e4:08:d5", instanceID.AsString())
}

func TestDetectServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	res, err := newTestDetector(t, ts).Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Attributes())
}

func TestDetectTimeout(t *testing.T) {
	replied := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(600 * time.Millisecond)
		_, _ = w.Write([]byte(`{"pid": 123, "agentUuid": "14:7d:da:ff:fe:e4:08:d5"}`))
		close(replied)
	}))
	defer ts.Close()

	d := newTestDetector(t, ts,
		WithTimeout(2*time.Second),
		WithRetryTimeout(200*time.Millisecond),
	)

	started := time.Now()
	res, err := d.Detect(context.Background())
	elapsed := time.Since(started)

	require.NoError(t, err)
	assert.Empty(t, res.Attributes())
	assert.Less(t, elapsed, 500*time.Millisecond, "detection must conclude at the window, not at the reply")

	// The late reply must not surface in the already-returned result
	select {
	case <-replied:
	case <-time.After(2 * time.Second):
		t.Fatal("server never finished its delayed reply")
	}
	assert.Empty(t, res.Attributes())
}

func TestDetectAgentAbsent(t *testing.T) {
	// Grab a port with no listener behind it
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	d, err := New(
		WithAgentHost("127.0.0.1"),
		WithAgentPort(port),
		WithTimeout(100*time.Millisecond),
		WithRetryTimeout(500*time.Millisecond),
	)
	require.NoError(t, err)

	started := time.Now()
	res, detectErr := d.Detect(context.Background())

	require.NoError(t, detectErr)
	assert.Empty(t, res.Attributes())
	assert.Less(t, time.Since(started), 1*time.Second)
}

// TestDetectNeverPartial verifies that every failure shape yields a fully
// empty attribute set, never one key without the other
func TestDetectNeverPartial(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json at all`))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			res, err := newTestDetector(t, ts).Detect(context.Background())
			require.NoError(t, err)

			attrs := res.Set()
			_, hasPID := attrs.Value(semconv.ProcessPIDKey)
			_, hasInstance := attrs.Value(semconv.ServiceInstanceIDKey)
			assert.False(t, hasPID)
			assert.False(t, hasInstance)
			assert.Empty(t, res.Attributes())
		})
	}
}

// TestWithAgentDetector verifies the resource.Option integration path
func TestWithAgentDetector(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pid": 123, "agentUuid": "14:7d:da:ff:fe:e4:08:d5"}`))
	}))
	defer ts.Close()

	host, port := serverHostPort(t, ts)
	res, err := resource.New(context.Background(), WithAgentDetector(
		WithAgentHost(host),
		WithAgentPort(port),
		WithRetryTimeout(1*time.Second),
	))
	require.NoError(t, err)

	attrs := res.Set()
	pid, ok := attrs.Value(semconv.ProcessPIDKey)
	require.True(t, ok)
	assert.Equal(t, int64(123), pid.AsInt64())
}

// TestWithAgentDetectorInvalidOptions verifies that broken options degrade
// to an empty resource instead of failing resource construction
func TestWithAgentDetectorInvalidOptions(t *testing.T) {
	res, err := resource.New(context.Background(), WithAgentDetector(
		WithAgentPort(-1),
	))
	require.NoError(t, err)
	assert.Empty(t, res.Attributes())
}

// TestDetectHonorsCallerContext verifies that an already-expired caller
// context concludes detection immediately
func TestDetectHonorsCallerContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestDetector(t, ts).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Attributes())
}

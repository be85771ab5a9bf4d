package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/arbor/internal/demo"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/host/remote"
	"github.com/vango-dev/arbor/pkg/telemetry"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(demo.Counter, &Config{Title: "Counter <demo>"}, opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *remote.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, typ)
	f, err := remote.DecodeFrame(msg)
	require.NoError(t, err)
	return f
}

func sendEvent(t *testing.T, conn *websocket.Conn, ev remote.Event) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, remote.EventFrame(ev).Encode()))
}

// connect opens a session and applies its first patch batch to a mirror.
func connect(t *testing.T, ts *httptest.Server) (*websocket.Conn, *remote.Mirror) {
	t.Helper()
	conn := dial(t, ts)

	f := readFrame(t, conn)
	require.Equal(t, remote.FrameInit, f.Type)
	init, err := remote.DecodeInit(f.Payload)
	require.NoError(t, err)
	require.NotEmpty(t, init.SessionID)

	mirror := remote.NewMirror(init.RootID)
	applyNext(t, conn, mirror)
	return conn, mirror
}

func applyNext(t *testing.T, conn *websocket.Conn, mirror *remote.Mirror) {
	t.Helper()
	f := readFrame(t, conn)
	require.Equal(t, remote.FramePatches, f.Type)
	patches, err := remote.DecodePatchFrame(f.Payload)
	require.NoError(t, err)
	require.NoError(t, mirror.Apply(patches))
}

func button(t *testing.T, mirror *remote.Mirror, label string) int {
	t.Helper()
	n := mirror.Root().Find(func(n *memory.Node) bool {
		return n.Tag == "button" && n.TextContent() == label
	})
	require.NotNil(t, n, "button %q", label)
	id, ok := mirror.NodeID(n)
	require.True(t, ok)
	return id
}

func TestPageRendersApplication(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Contains(t, string(body), "<title>Counter &lt;demo&gt;</title>")
	require.Contains(t, string(body), `<div id="arbor-root" data-live="/live">`)
	require.Contains(t, string(body), `<span class="count">0</span>`)
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLiveSessionStreamsPatches(t *testing.T) {
	srv, ts := newTestServer(t)
	conn, mirror := connect(t, ts)

	html, err := mirror.Serialize()
	require.NoError(t, err)
	require.Contains(t, html, "<h1>Counter</h1>")
	require.Contains(t, html, `<span class="count">0</span>`)
	require.Equal(t, 1, srv.Sessions())

	sendEvent(t, conn, remote.Event{Node: button(t, mirror, "+"), Name: "click"})
	applyNext(t, conn, mirror)
	html, err = mirror.Serialize()
	require.NoError(t, err)
	require.Contains(t, html, `<span class="count">1</span>`)

	minus := button(t, mirror, "-")
	sendEvent(t, conn, remote.Event{Node: minus, Name: "click"})
	applyNext(t, conn, mirror)
	sendEvent(t, conn, remote.Event{Node: minus, Name: "click"})
	applyNext(t, conn, mirror)
	html, err = mirror.Serialize()
	require.NoError(t, err)
	require.Contains(t, html, `<span class="count negative">-1</span>`)

	conn.Close()
	require.Eventually(t, func() bool { return srv.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestLiveSessionReportsEventErrors(t *testing.T) {
	_, ts := newTestServer(t)
	conn, mirror := connect(t, ts)

	sendEvent(t, conn, remote.Event{Node: 9999, Name: "click"})
	f := readFrame(t, conn)
	require.Equal(t, remote.FrameError, f.Type)
	code, msg, err := remote.DecodeError(f.Payload)
	require.NoError(t, err)
	require.Equal(t, "E040", code)
	require.Contains(t, msg, "#9999")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{byte(remote.FrameEvent), 10}))
	f = readFrame(t, conn)
	require.Equal(t, remote.FrameError, f.Type)
	code, _, err = remote.DecodeError(f.Payload)
	require.NoError(t, err)
	require.Equal(t, "E042", code)

	// the session survives both errors
	sendEvent(t, conn, remote.Event{Node: button(t, mirror, "+"), Name: "click"})
	applyNext(t, conn, mirror)
	html, err := mirror.Serialize()
	require.NoError(t, err)
	require.Contains(t, html, `<span class="count">1</span>`)
}

func TestSessionsAreIsolated(t *testing.T) {
	_, ts := newTestServer(t)
	a, mirrorA := connect(t, ts)
	_, mirrorB := connect(t, ts)

	sendEvent(t, a, remote.Event{Node: button(t, mirrorA, "+"), Name: "click"})
	applyNext(t, a, mirrorA)

	htmlA, err := mirrorA.Serialize()
	require.NoError(t, err)
	htmlB, err := mirrorB.Serialize()
	require.NoError(t, err)
	require.Contains(t, htmlA, `<span class="count">1</span>`)
	require.Contains(t, htmlB, `<span class="count">0</span>`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	_, ts := newTestServer(t, WithMetrics(m, reg))

	conn, mirror := connect(t, ts)
	sendEvent(t, conn, remote.Event{Node: button(t, mirror, "+"), Name: "click"})
	applyNext(t, conn, mirror)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), "arbor_active_sessions 1")
	require.Contains(t, string(body), "arbor_patches_sent_total")
	require.Contains(t, string(body), "arbor_walks_total")
}

// spanLog records the name and start attributes of every span. Sessions
// start spans on their own loop goroutines.
type spanLog struct {
	noop.Tracer
	mu    sync.Mutex
	spans []loggedSpan
}

type loggedSpan struct {
	name  string
	attrs []attribute.KeyValue
}

func (l *spanLog) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	l.mu.Lock()
	l.spans = append(l.spans, loggedSpan{name: name, attrs: cfg.Attributes()})
	l.mu.Unlock()
	return l.Tracer.Start(ctx, name, opts...)
}

func (l *spanLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.spans {
		if s.name == name {
			n++
		}
	}
	return n
}

func (l *spanLog) sessions() map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[string]bool{}
	for _, s := range l.spans {
		for _, a := range s.attrs {
			if a.Key == "arbor.session" {
				out[a.Value.AsString()] = true
			}
		}
	}
	return out
}

func TestTracingRecordsSessionWalks(t *testing.T) {
	spans := &spanLog{}
	_, ts := newTestServer(t, WithTracing(spans))

	conn, mirror := connect(t, ts)
	sendEvent(t, conn, remote.Event{Node: button(t, mirror, "+"), Name: "click"})
	applyNext(t, conn, mirror)
	connect(t, ts)

	require.Eventually(t, func() bool {
		return spans.count("arbor.walk") >= 3 && spans.count("arbor.commit") >= 3
	}, 5*time.Second, 10*time.Millisecond)
	require.Len(t, spans.sessions(), 2, "walk spans carry the session ID")
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, ts := newTestServer(t)
	conn, _ := connect(t, ts)
	require.Equal(t, 1, srv.Sessions())

	require.NoError(t, srv.Shutdown(t.Context()))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.Eventually(t, func() bool { return srv.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{Address: ":9000"}).withDefaults()
	require.Equal(t, ":9000", cfg.Address)
	require.Equal(t, DefaultConfig().FrameBudget, cfg.FrameBudget)
	require.Equal(t, 64, cfg.SendQueueSize)

	require.True(t, (*Config)(nil).withDefaults().ForceFirstWalk)
}

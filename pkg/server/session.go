package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/host/remote"
	"github.com/vango-dev/arbor/pkg/reactive"
	"github.com/vango-dev/arbor/pkg/reconcile"
	"github.com/vango-dev/arbor/pkg/schedule"
	"github.com/vango-dev/arbor/pkg/telemetry"
)

// Session is one live connection. It owns an application tree rendered into
// a remote.Renderer and driven by its own schedule.Loop.
type Session struct {
	// ID identifies the session to the client.
	ID string

	server   *Server
	conn     *websocket.Conn
	renderer *remote.Renderer
	loop     *schedule.Loop
	root     *reconcile.Root
	logger   *slog.Logger

	send   chan []byte
	done   chan struct{}
	closed atomic.Bool
}

func newSession(s *Server, conn *websocket.Conn) *Session {
	id := uuid.NewString()
	return &Session{
		ID:       id,
		server:   s,
		conn:     conn,
		renderer: remote.NewRenderer(),
		logger:   s.logger.With("session_id", id),
		send:     make(chan []byte, s.config.SendQueueSize),
		done:     make(chan struct{}),
	}
}

// serve mounts the application and processes client frames until the
// connection ends.
func (sess *Session) serve() {
	cfg := sess.server.config
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess.loop = schedule.NewLoop(
		schedule.WithFrameBudget(cfg.FrameBudget),
		schedule.WithLoopLogger(sess.logger),
	)
	store := reactive.NewStore(reactive.WithLogger(sess.logger))

	observers := reconcile.Observers{&flusher{session: sess}}
	if sess.server.metrics != nil {
		observers = append(observers, sess.server.metrics)
	}
	if t := sess.server.tracer; t != nil {
		observers = append(observers, telemetry.NewTracer(
			telemetry.WithTracer(t),
			telemetry.WithParentContext(ctx),
			telemetry.WithAttributes(attribute.String("arbor.session", sess.ID)),
		))
	}
	opts := []reconcile.Option{
		reconcile.WithDriver(sess.loop),
		reconcile.WithStore(store),
		reconcile.WithLogger(sess.logger),
		reconcile.WithObserver(observers),
	}
	if cfg.ForceFirstWalk {
		opts = append(opts, reconcile.WithForceFirst())
	}
	sess.root = reconcile.NewRoot(sess.server.factory(store), sess.renderer, sess.renderer.Root(), opts...)

	go sess.loop.Run(ctx)
	go sess.writeLoop()

	sess.queue(remote.InitFrame(remote.Init{RootID: sess.renderer.RootID(), SessionID: sess.ID}))
	if err := sess.loop.Dispatch(sess.root.Start); err != nil {
		sess.logger.Error("session start failed", "error", err)
		sess.Close()
		return
	}
	sess.logger.Info("session opened")

	sess.readLoop()

	unmountCtx, stop := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	if err := sess.loop.Call(unmountCtx, sess.root.Unmount); err != nil {
		sess.logger.Warn("unmount failed", "error", err)
	}
	stop()
	sess.logger.Info("session closed")
}

// readLoop decodes client frames until the connection fails or the session
// is closed.
func (sess *Session) readLoop() {
	defer sess.Close()

	for {
		sess.conn.SetReadDeadline(time.Now().Add(sess.server.config.ReadTimeout))

		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				sess.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := remote.DecodeFrame(msg)
		if err != nil {
			sess.logger.Warn("frame decode error", "error", err)
			sess.fail(err)
			continue
		}

		switch frame.Type {
		case remote.FrameEvent:
			sess.handleEvent(frame.Payload)
		default:
			sess.logger.Warn("unexpected frame type", "type", frame.Type)
		}
	}
}

// handleEvent runs the event's handler on the session loop. Handler failures
// are reported back to the client.
func (sess *Session) handleEvent(payload []byte) {
	ev, err := remote.DecodeEvent(payload)
	if err != nil {
		sess.fail(err)
		return
	}
	err = sess.loop.Dispatch(func() {
		if err := sess.renderer.Dispatch(ev); err != nil {
			sess.logger.Warn("event dispatch failed", "node", ev.Node, "event", ev.Name, "error", err)
			sess.fail(err)
		}
	})
	if err != nil && !stderrors.Is(err, schedule.ErrLoopClosed) {
		sess.logger.Error("event queue failed", "error", err)
	}
}

// fail sends err to the client as an Error frame.
func (sess *Session) fail(err error) {
	ae := errors.FromError(err, "E042")
	msg := ae.Message
	if ae.Detail != "" {
		msg += ": " + ae.Detail
	}
	sess.queue(remote.ErrorFrame(ae.Code, msg))
}

// queue hands a frame to the write loop. It drops the frame once the
// session is closed.
func (sess *Session) queue(f *remote.Frame) bool {
	select {
	case sess.send <- f.Encode():
		return true
	case <-sess.done:
		return false
	}
}

func (sess *Session) writeLoop() {
	for {
		select {
		case msg := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(sess.server.config.WriteTimeout))
			if err := sess.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				sess.logger.Warn("write error", "error", err)
				sess.Close()
				return
			}
		case <-sess.done:
			return
		}
	}
}

// Close ends the session. It is safe to call more than once.
func (sess *Session) Close() {
	if sess.closed.Swap(true) {
		return
	}
	close(sess.done)
	sess.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	sess.conn.Close()
}

// flusher ships each commit's patches to the client.
type flusher struct {
	reconcile.NopObserver
	session *Session
}

func (f *flusher) Committed(reconcile.CommitStats, time.Duration, error) {
	patches := f.session.renderer.Take()
	if len(patches) == 0 {
		return
	}
	if f.session.queue(remote.PatchFrame(patches)) {
		if m := f.session.server.metrics; m != nil {
			m.RecordPatches(len(patches))
		}
	}
}

var _ reconcile.Observer = (*flusher)(nil)

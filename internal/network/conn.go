// Package network carries protocol messages over WebSocket and locates
// servers on the local network.
package network

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Options tunes a Conn. Zero fields take the defaults below.
type Options struct {
	// PingInterval is how often keepalive pings are sent.
	PingInterval time.Duration
	// PongWait is how long the read side waits for any frame, pongs
	// included, before declaring the peer dead.
	PongWait  time.Duration
	WriteWait time.Duration
	// ReadLimit caps the size of one inbound message.
	ReadLimit int64
	QueueSize int
	Logger    *slog.Logger
}

const (
	defaultPingInterval = 30 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultWriteWait    = 10 * time.Second
	defaultReadLimit    = 1 << 20
	defaultQueueSize    = 256

	// closeGrace is how long a local close waits for the peer's close reply.
	closeGrace = 2 * time.Second
)

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = defaultReadLimit
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Conn is a message channel over one WebSocket connection. Each message is
// one binary frame. Outgoing messages are queued and written in order by a
// single write pump; every write to the socket, control frames included,
// happens under one mutex.
type Conn struct {
	ws     *websocket.Conn
	opts   Options
	logger *slog.Logger

	send    chan []byte
	writeMu sync.Mutex

	// sealed is set under sendMu once the queue is drained for the last
	// time; Send holds the read lock while enqueueing.
	sendMu sync.RWMutex
	sealed bool

	closing   chan struct{}
	closeOnce sync.Once
	closeCode atomic.Int32
	local     atomic.Bool

	writeErr atomic.Pointer[error]
	started  atomic.Bool
}

// NewConn wraps an established WebSocket connection. Call Run to start it.
func NewConn(ws *websocket.Conn, opts Options) *Conn {
	opts = opts.withDefaults()
	c := &Conn{
		ws:      ws,
		opts:    opts,
		logger:  opts.Logger.With("component", "transport", "remote", ws.RemoteAddr().String()),
		send:    make(chan []byte, opts.QueueSize),
		closing: make(chan struct{}),
	}
	c.closeCode.Store(websocket.CloseNormalClosure)
	ws.SetReadLimit(opts.ReadLimit)
	ws.SetPingHandler(c.handlePing)
	ws.SetCloseHandler(c.handleClose)
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(opts.PongWait))
	})
	return c
}

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Send queues msg for delivery. It blocks while the queue is full and fails
// with an *Error once the connection is closing.
func (c *Conn) Send(msg []byte) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sealed {
		return errClosed("send")
	}
	select {
	case <-c.closing:
		return errClosed("send")
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.closing:
		return errClosed("send")
	}
}

// Close starts an orderly shutdown: queued messages are flushed, a close
// frame is sent, and Run returns once the peer answers or closeGrace passes.
func (c *Conn) Close() {
	c.local.Store(true)
	c.shutdown()
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() { close(c.closing) })
}

// Run pumps the connection until it ends, calling handle for each inbound
// message in arrival order. handle runs on the read goroutine; an error
// from it ends the connection and is returned as is. A clean close by
// either side returns nil; anything else returns an *Error.
func (c *Conn) Run(ctx context.Context, handle func([]byte) error) error {
	if !c.started.CompareAndSwap(false, true) {
		return &Error{Op: "run", Err: errors.New("already running")}
	}

	stop := context.AfterFunc(ctx, c.Close)
	defer stop()

	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	err := c.readPump(handle)
	c.shutdown()
	<-writerDone
	c.ws.Close()

	if p := c.writeErr.Load(); p != nil {
		return *p
	}
	return err
}

func (c *Conn) readPump(handle func([]byte) error) error {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			switch {
			case errors.As(err, &ce):
				c.logger.Info("connection closed by peer", "code", ce.Code, "reason", ce.Text)
				if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
					return nil
				}
				return &Error{Op: "read", Err: err}
			case c.local.Load():
				// Our close frame was not answered in time.
				return nil
			default:
				return &Error{Op: "read", Err: err}
			}
		}
		if mt != websocket.BinaryMessage {
			c.logger.Warn("ignoring non-binary message", "type", mt, "size", len(data))
			continue
		}
		if err := handle(data); err != nil {
			c.closeCode.Store(websocket.CloseUnsupportedData)
			return err
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.BinaryMessage, msg); err != nil {
				c.fail(err)
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.fail(err)
				return
			}

		case <-c.closing:
			c.flush()
			return
		}
	}
}

// seal stops Send from queueing. Sends already past the check finish
// first; they cannot block because closing is closed.
func (c *Conn) seal() {
	c.sendMu.Lock()
	c.sealed = true
	c.sendMu.Unlock()
}

// flush writes whatever is still queued, then the close frame.
func (c *Conn) flush() {
	c.seal()
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.BinaryMessage, msg); err != nil {
				c.fail(err)
				return
			}
		default:
			code := int(c.closeCode.Load())
			err := c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug("close frame not sent", "error", err)
			}
			c.ws.SetReadDeadline(time.Now().Add(closeGrace))
			return
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.ws.WriteMessage(messageType, data)
}

// fail records a write error and unblocks the read pump.
func (c *Conn) fail(err error) {
	werr := error(&Error{Op: "write", Err: err})
	c.writeErr.CompareAndSwap(nil, &werr)
	c.logger.Warn("write failed", "error", err)
	c.shutdown()
	c.seal()
	c.ws.Close()
}

// handlePing answers with the same payload right away, serialized with the
// write pump.
func (c *Conn) handlePing(data string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	err := c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.opts.WriteWait))
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// handleClose defers the close reply to the write pump so that queued
// messages go out first.
func (c *Conn) handleClose(code int, _ string) error {
	if code != websocket.CloseNoStatusReceived {
		c.closeCode.Store(int32(code))
	}
	c.shutdown()
	return nil
}

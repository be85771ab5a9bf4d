package server

import (
	"net/http"
	"time"

	"github.com/vango-dev/arbor/pkg/schedule"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address (default ":8080").
	Address string

	// Title is the <title> of server-rendered pages.
	Title string

	// FrameBudget is the per-turn reconciliation budget of live sessions.
	FrameBudget time.Duration

	// ForceFirstWalk makes the first walk of each session run to completion.
	// DefaultConfig enables it.
	ForceFirstWalk bool

	// SendQueueSize is the number of frames buffered per session.
	SendQueueSize int

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header of WebSocket upgrades.
	CheckOrigin func(r *http.Request) bool

	// ReadTimeout bounds the silence allowed on a live connection.
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// ReadHeaderTimeout and IdleTimeout configure the HTTP server.
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		Title:             "arbor",
		FrameBudget:       schedule.DefaultFrameBudget,
		ForceFirstWalk:    true,
		SendQueueSize:     64,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       func(*http.Request) bool { return true },
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	d := DefaultConfig()
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.Title == "" {
		out.Title = d.Title
	}
	if out.FrameBudget == 0 {
		out.FrameBudget = d.FrameBudget
	}
	if out.SendQueueSize == 0 {
		out.SendQueueSize = d.SendQueueSize
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	return &out
}

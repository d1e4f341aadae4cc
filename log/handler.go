// Package log provides structured logging (slog) routed from the guest module
// to the host's log_message import.
package log

import (
	"context"
	"log/slog"
	"time"
)

// HostModule and HostFunction name the import records are sent through.
// They must match the //go:wasmimport directive in handler_wasm.go.
const (
	HostModule   = "theme_host"
	HostFunction = "log_message"
)

// WasmLogHandler implements slog.Handler to route logs through a host function.
type WasmLogHandler struct {
	attrs []slog.Attr
	group string
	opts  handlerConfig
}

// HandlerOption configures the WasmLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	sink      func([]byte)
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
		sink:  sendToHost,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level will be filtered on the guest side.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithSink replaces the transport that delivers encoded messages.
// The default sink is the host log_message import.
func WithSink(sink func([]byte)) HandlerOption {
	return func(c *handlerConfig) {
		c.sink = sink
	}
}

// NewHandler creates a new WasmLogHandler with the given options.
func NewHandler(opts ...HandlerOption) *WasmLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WasmLogHandler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WasmLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// Handle serializes a slog.Record and delivers it through the sink.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	msg := LogMessageWire{
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if h.opts.addSource && record.PC != 0 {
		msg.Source = sourceOf(record.PC)
	}

	for _, attr := range h.attrs {
		msg.Attrs = append(msg.Attrs, toLogAttrWire(attr))
	}
	record.Attrs(func(attr slog.Attr) bool {
		if h.group != "" {
			attr.Key = h.group + "." + attr.Key
		}
		msg.Attrs = append(msg.Attrs, toLogAttrWire(attr))
		return true
	})

	h.opts.sink(encode(msg))
	return nil
}

// WithAttrs returns a new WasmLogHandler that includes the given attributes.
func (h *WasmLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandler := *h
	newHandler.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newHandler.attrs = append(newHandler.attrs, h.attrs...)
	for _, attr := range attrs {
		if h.group != "" {
			attr.Key = h.group + "." + attr.Key
		}
		newHandler.attrs = append(newHandler.attrs, attr)
	}
	return &newHandler
}

// WithGroup returns a new WasmLogHandler with the given group name.
// Grouped attribute keys are flattened as "group.key".
func (h *WasmLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newHandler := *h
	if h.group != "" {
		newHandler.group = h.group + "." + name
	} else {
		newHandler.group = name
	}
	return &newHandler
}

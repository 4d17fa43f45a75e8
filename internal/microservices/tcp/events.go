package tcp

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
)

// EventLogger writes one JSON object per line. The slog message becomes the
// "event" field, e.g. {"time":...,"level":"INFO","event":"client_connected","ip":...}.
// slog's JSON handler serializes each record under a lock, so events from
// different connections never interleave within a line.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger returns a logger writing to w at the given level.
func NewEventLogger(w io.Writer, level slog.Leveler) *EventLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.MessageKey {
				a.Key = "event"
			}
			return a
		},
	})
	return &EventLogger{logger: slog.New(handler)}
}

// DefaultEventLogger writes info-level events to stdout.
func DefaultEventLogger() *EventLogger {
	return NewEventLogger(os.Stdout, slog.LevelInfo)
}

// Logger exposes the underlying slog logger so other components share the sink.
func (e *EventLogger) Logger() *slog.Logger {
	return e.logger
}

func (e *EventLogger) ServerStarted(host string, port int, authEnabled bool, commands []string) {
	cwd, _ := os.Getwd()
	e.logger.Info("server_started",
		"host", host,
		"port", port,
		"system", runtime.GOOS,
		"cwd", cwd,
		"auth_enabled", authEnabled,
		"commands", commands,
	)
}

func (e *EventLogger) ServerStopped() {
	e.logger.Info("server_stopped")
}

func (e *EventLogger) ClientConnected(ip string, port int, sessionID string) {
	e.logger.Info("client_connected",
		"ip", ip,
		"port", port,
		"session_id", sessionID,
	)
}

func (e *EventLogger) ClientDisconnected(ip string, port int, sessionID string) {
	e.logger.Info("client_disconnected",
		"ip", ip,
		"port", port,
		"session_id", sessionID,
	)
}

func (e *EventLogger) AcceptError(err error) {
	e.logger.Error("accept_error", "error", err.Error())
}

func (e *EventLogger) ClientError(ip string, port int, sessionID string, err error) {
	e.logger.Error("handle_client_error",
		"ip", ip,
		"port", port,
		"session_id", sessionID,
		"error", err.Error(),
	)
}

func (e *EventLogger) HandlerPanic(command string, recovered any) {
	e.logger.Error("handler_panic",
		"command", command,
		"panic", fmt.Sprint(recovered),
	)
}

func (e *EventLogger) Warn(event string, args ...any) {
	e.logger.Warn(event, args...)
}

func (e *EventLogger) Debug(event string, args ...any) {
	e.logger.Debug(event, args...)
}

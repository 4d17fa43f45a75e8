package tcp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcmd/internal/commands"
	"rcmd/internal/metrics"
)

// recordingHandler remembers every invocation.
type recordingHandler struct {
	mu    sync.Mutex
	calls []commands.Args
}

func (h *recordingHandler) handle(_ context.Context, args commands.Args) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, args)
	return "recorded", nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func newTestDispatcher(t *testing.T, token string, specs ...commands.Spec) (*Dispatcher, *syncBuffer) {
	t.Helper()
	reg, err := commands.NewRegistryFrom(specs...)
	require.NoError(t, err)
	out := &syncBuffer{}
	events := NewEventLogger(out, slog.LevelDebug)
	return NewDispatcher(NewAuthGuard(token), reg, events, nil), out
}

// handle runs one frame through the dispatcher and expects a reply.
func handle(t *testing.T, d *Dispatcher, frame string) Response {
	t.Helper()
	resp, exit := d.Handle(context.Background(), []byte(frame))
	require.False(t, exit, frame)
	return resp
}

func TestDispatcher_EchoScenario(t *testing.T) {
	d, _ := newTestDispatcher(t, "T", commands.Spec{Name: "echo", Handler: commands.Echo})

	resp := handle(t, d, `{"command":"echo","args":{"message":"Hello"},"token":"T"}`)

	assert.Equal(t, Success("Hello"), resp)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t, "", commands.Spec{Name: "echo", Handler: commands.Echo})

	resp := handle(t, d, `{"command":"frobnicate"}`)

	assert.Equal(t, Failure("Unknown command: frobnicate"), resp)
}

func TestDispatcher_UnauthorizedNeverInvokesHandler(t *testing.T) {
	rec := &recordingHandler{}
	d, _ := newTestDispatcher(t, "S", commands.Spec{Name: "record", Handler: rec.handle})

	frames := []string{
		`{"command":"record"}`,
		`{"command":"record","token":""}`,
		`{"command":"record","token":"s"}`,
		`{"command":"record","token":"SS"}`,
		// auth is checked before the registry, so unknown names are also unauthorized
		`{"command":"frobnicate","token":"wrong"}`,
	}
	for _, frame := range frames {
		resp := handle(t, d, frame)
		assert.Equal(t, Failure("Unauthorized"), resp, frame)
	}
	assert.Equal(t, 0, rec.count())

	resp := handle(t, d, `{"command":"record","token":"S"}`)
	assert.Equal(t, Success("recorded"), resp)
	assert.Equal(t, 1, rec.count())
}

func TestDispatcher_AuthDisabledIgnoresToken(t *testing.T) {
	rec := &recordingHandler{}
	d, _ := newTestDispatcher(t, "", commands.Spec{Name: "record", Handler: rec.handle})

	for _, frame := range []string{
		`{"command":"record"}`,
		`{"command":"record","token":""}`,
		`{"command":"record","token":"whatever"}`,
	} {
		assert.Equal(t, Success("recorded"), handle(t, d, frame))
	}
	assert.Equal(t, 3, rec.count())
}

func TestDispatcher_MalformedRequests(t *testing.T) {
	d, _ := newTestDispatcher(t, "S", commands.Spec{Name: "echo", Handler: commands.Echo})

	assert.Equal(t, Failure("Invalid JSON"), handle(t, d, `{"command":`))
	// shape is validated before auth
	assert.Equal(t, Failure("Invalid request"), handle(t, d, `{"args":{}}`))
	assert.Equal(t, Failure("Invalid request"), handle(t, d, `{"command":"echo","token":7}`))
}

func TestDispatcher_DefaultsArgsToEmptyMap(t *testing.T) {
	rec := &recordingHandler{}
	d, _ := newTestDispatcher(t, "", commands.Spec{Name: "record", Handler: rec.handle})

	d.Dispatch(context.Background(), &Request{Command: "record"})

	require.Equal(t, 1, rec.count())
	assert.NotNil(t, rec.calls[0])
	assert.Empty(t, rec.calls[0])
}

func TestDispatcher_HandlerErrorIsResponse(t *testing.T) {
	d, _ := newTestDispatcher(t, "", commands.Spec{
		Name:    "fail",
		Handler: func(context.Context, commands.Args) (any, error) { return nil, errors.New("File not found") },
	})

	resp := handle(t, d, `{"command":"fail"}`)

	assert.Equal(t, Failure("File not found"), resp)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d, out := newTestDispatcher(t, "", commands.Spec{
		Name:    "boom",
		Handler: func(context.Context, commands.Args) (any, error) { panic("index out of range") },
	})

	resp := handle(t, d, `{"command":"boom"}`)

	assert.Equal(t, Failure("Internal error"), resp)
	events := out.events(t)
	require.NotEmpty(t, events)
	assert.Equal(t, "handler_panic", events[0]["event"])
	assert.Equal(t, "boom", events[0]["command"])
}

func TestDispatcher_RecordsMetrics(t *testing.T) {
	reg, err := commands.NewRegistryFrom(commands.Spec{Name: "echo", Handler: commands.Echo})
	require.NoError(t, err)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	d := NewDispatcher(NewAuthGuard(""), reg, NewEventLogger(&bytes.Buffer{}, slog.LevelInfo), m)

	handle(t, d, `{"command":"echo","args":{"message":"hi"}}`)
	handle(t, d, `{"command":"echo","args":{"message":5}}`)
	handle(t, d, `{"command":"frobnicate"}`)
	handle(t, d, `{"command":`)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("echo", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("echo", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.UnknownCommand, "error")))
}

func TestDispatcher_ExitEndsSessionWithoutAuth(t *testing.T) {
	rec := &recordingHandler{}
	d, _ := newTestDispatcher(t, "S", commands.Spec{Name: "record", Handler: rec.handle})

	_, exit := d.Handle(context.Background(), []byte(`{"command":"exit"}`))
	assert.True(t, exit)

	// a malformed body is still a reply, never an exit
	resp, exit := d.Handle(context.Background(), []byte(`{"command":"exit","args":[]}`))
	assert.False(t, exit)
	assert.Equal(t, Failure("Invalid request"), resp)
	assert.Equal(t, 0, rec.count())
}

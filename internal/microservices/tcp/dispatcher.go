package tcp

import (
	"context"
	"time"

	"rcmd/internal/commands"
	"rcmd/internal/metrics"
)

// Dispatcher turns one request into one response. Every per-request failure
// (bad JSON, bad shape, auth, unknown command, handler error or panic) comes
// back as an error Response; Dispatch never fails the connection.
type Dispatcher struct {
	auth     *AuthGuard
	registry *commands.Registry
	events   *EventLogger
	metrics  *metrics.Metrics
}

func NewDispatcher(auth *AuthGuard, registry *commands.Registry, events *EventLogger, m *metrics.Metrics) *Dispatcher {
	if events == nil {
		events = DefaultEventLogger()
	}
	return &Dispatcher{
		auth:     auth,
		registry: registry,
		events:   events,
		metrics:  m,
	}
}

// Handle decodes and dispatches one raw frame. exit is true when the client
// asked to end the session; no response is sent in that case.
func (d *Dispatcher) Handle(ctx context.Context, frame []byte) (resp Response, exit bool) {
	req, err := DecodeRequest(frame)
	if err != nil {
		d.metrics.ObserveRequest(metrics.UnknownCommand, string(StatusError), 0)
		d.events.Debug("invalid_request_received",
			"error", err.Error(),
		)
		return Failure(err.Error()), false
	}
	// exit only ends the caller's own session, so it needs no token
	if req.Command == ExitCommand {
		return Response{}, true
	}
	return d.Dispatch(ctx, req), false
}

// Dispatch checks auth, resolves the command and runs its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) Response {
	start := time.Now()

	if !d.auth.Check(req.Token) {
		d.metrics.ObserveRequest(metrics.UnknownCommand, string(StatusError), time.Since(start))
		return Failure(MsgUnauthorized)
	}

	spec, ok := d.registry.Lookup(req.Command)
	if !ok {
		d.metrics.ObserveRequest(metrics.UnknownCommand, string(StatusError), time.Since(start))
		return Failure("Unknown command: " + req.Command)
	}

	args := commands.Args(req.Args)
	if args == nil {
		args = commands.Args{}
	}

	resp := d.invoke(ctx, spec, args)
	d.metrics.ObserveRequest(spec.Name, string(resp.Status), time.Since(start))
	d.events.Debug("request_handled",
		"command", spec.Name,
		"status", resp.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

func (d *Dispatcher) invoke(ctx context.Context, spec commands.Spec, args commands.Args) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.events.HandlerPanic(spec.Name, r)
			resp = Failure(MsgInternalError)
		}
	}()

	result, err := spec.Handler(ctx, args)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = MsgInternalError
		}
		return Failure(msg)
	}
	return Success(result)
}

package tcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ExitCommand ends the session; the server closes the connection without replying.
const ExitCommand = "exit"

// per-request error messages sent on the wire
const (
	MsgInvalidJSON       = "Invalid JSON"
	MsgInvalidRequest    = "Invalid request"
	MsgUnauthorized      = "Unauthorized"
	MsgInternalError     = "Internal error"
	MsgRateLimitExceeded = "Rate limit exceeded"
	MsgMessageTooLarge   = "Message too large"
)

var (
	ErrInvalidJSON    = errors.New(MsgInvalidJSON)
	ErrInvalidRequest = errors.New(MsgInvalidRequest)
)

// Request is one decoded client request.
type Request struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
	Token   *string        `json:"token,omitempty"`
}

// DecodeRequest parses one frame. It returns ErrInvalidJSON when the frame is
// not exactly one JSON value and ErrInvalidRequest when the value does not
// have the request shape.
func DecodeRequest(frame []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, ErrInvalidJSON
	}
	// a second value on the same line is not a request
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrInvalidJSON
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrInvalidRequest
	}

	req := &Request{Args: map[string]any{}}

	cmd, ok := obj["command"].(string)
	if !ok {
		return nil, ErrInvalidRequest
	}
	req.Command = cmd

	switch args := obj["args"].(type) {
	case nil:
	case map[string]any:
		req.Args = args
	default:
		return nil, ErrInvalidRequest
	}

	switch token := obj["token"].(type) {
	case nil:
	case string:
		req.Token = &token
	default:
		return nil, ErrInvalidRequest
	}

	return req, nil
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Response is either {"status":"success","result":...} or {"status":"error","error":"..."}.
type Response struct {
	Status Status
	Result any
	Error  string
}

func Success(result any) Response {
	return Response{Status: StatusSuccess, Result: result}
}

func Failure(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

func (r Response) OK() bool {
	return r.Status == StatusSuccess
}

type successWire struct {
	Status Status `json:"status"`
	Result any    `json:"result"`
}

type errorWire struct {
	Status Status `json:"status"`
	Error  string `json:"error"`
}

// MarshalJSON emits exactly one of result or error, so an empty echo still
// carries "result":"".
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case StatusSuccess:
		return json.Marshal(successWire{Status: r.Status, Result: r.Result})
	case StatusError:
		return json.Marshal(errorWire{Status: r.Status, Error: r.Error})
	default:
		return nil, fmt.Errorf("invalid response status %q", r.Status)
	}
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var wire struct {
		Status Status `json:"status"`
		Result any    `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Status {
	case StatusSuccess:
		*r = Success(wire.Result)
	case StatusError:
		*r = Failure(wire.Error)
	default:
		return fmt.Errorf("invalid response status %q", wire.Status)
	}
	return nil
}

// ParseResponse decodes one response frame.
func ParseResponse(frame []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(frame, &r); err != nil {
		return Response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return r, nil
}

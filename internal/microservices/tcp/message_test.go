package tcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	cases := []struct {
		name    string
		frame   string
		wantErr error
		check   func(t *testing.T, req *Request)
	}{
		{
			name:  "full request",
			frame: `{"command":"echo","args":{"message":"Hello"},"token":"T"}`,
			check: func(t *testing.T, req *Request) {
				assert.Equal(t, "echo", req.Command)
				assert.Equal(t, "Hello", req.Args["message"])
				require.NotNil(t, req.Token)
				assert.Equal(t, "T", *req.Token)
			},
		},
		{
			name:  "args and token optional",
			frame: `{"command":"uptime"}`,
			check: func(t *testing.T, req *Request) {
				assert.NotNil(t, req.Args)
				assert.Empty(t, req.Args)
				assert.Nil(t, req.Token)
			},
		},
		{
			name:  "null args and token",
			frame: `{"command":"uptime","args":null,"token":null}`,
			check: func(t *testing.T, req *Request) {
				assert.Empty(t, req.Args)
				assert.Nil(t, req.Token)
			},
		},
		{
			name:  "empty token is present",
			frame: `{"command":"uptime","token":""}`,
			check: func(t *testing.T, req *Request) {
				require.NotNil(t, req.Token)
				assert.Equal(t, "", *req.Token)
			},
		},
		{
			name:  "numbers keep integer precision",
			frame: `{"command":"processlist","args":{"limit":5}}`,
			check: func(t *testing.T, req *Request) {
				assert.Equal(t, json.Number("5"), req.Args["limit"])
			},
		},
		{name: "truncated", frame: `{"command":`, wantErr: ErrInvalidJSON},
		{name: "not json", frame: `hello`, wantErr: ErrInvalidJSON},
		{name: "two values on one line", frame: `{"command":"echo"}{"command":"echo"}`, wantErr: ErrInvalidJSON},
		{name: "array", frame: `["echo"]`, wantErr: ErrInvalidRequest},
		{name: "missing command", frame: `{"args":{}}`, wantErr: ErrInvalidRequest},
		{name: "command not string", frame: `{"command":42}`, wantErr: ErrInvalidRequest},
		{name: "args not object", frame: `{"command":"echo","args":["x"]}`, wantErr: ErrInvalidRequest},
		{name: "token not string", frame: `{"command":"echo","token":123}`, wantErr: ErrInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tc.frame))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			tc.check(t, req)
		})
	}
}

func TestResponse_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Success("Hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","result":"Hello"}`, string(data))

	data, err = json.Marshal(Success(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","result":""}`, string(data))

	data, err = json.Marshal(Success(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","result":null}`, string(data))

	data, err = json.Marshal(Failure("Unknown command: frobnicate"))
	require.NoError(t, err)
	assert.Equal(t, `{"status":"error","error":"Unknown command: frobnicate"}`, string(data))

	_, err = json.Marshal(Response{Status: "maybe"})
	assert.Error(t, err)
}

func TestResponse_RoundTrip(t *testing.T) {
	responses := []Response{
		Success("Hello"),
		Success(""),
		Success(nil),
		Success(true),
		Success(12.5),
		Success([]any{"a", 1.0, nil, []any{"nested"}}),
		Success(map[string]any{
			"total": 100.0,
			"items": []any{map[string]any{"name": "x", "is_dir": false}},
			"empty": map[string]any{},
		}),
		Failure("Unauthorized"),
		Failure(""),
	}

	for _, want := range responses {
		data, err := json.Marshal(want)
		require.NoError(t, err)

		got, err := ParseResponse(data)
		require.NoError(t, err)
		assert.Equal(t, want, got, "payload %s", data)
	}
}

func TestParseResponse_RejectsUnknownStatus(t *testing.T) {
	_, err := ParseResponse([]byte(`{"status":"pending"}`))
	assert.Error(t, err)

	_, err = ParseResponse([]byte(`not json`))
	assert.Error(t, err)
}

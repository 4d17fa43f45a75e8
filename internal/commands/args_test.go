package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_String(t *testing.T) {
	args := Args{"path": "/tmp", "nil": nil, "num": 3.0}

	v, err := args.String("path", ".")
	require.NoError(t, err)
	assert.Equal(t, "/tmp", v)

	v, err = args.String("missing", ".")
	require.NoError(t, err)
	assert.Equal(t, ".", v)

	v, err = args.String("nil", ".")
	require.NoError(t, err)
	assert.Equal(t, ".", v)

	_, err = args.String("num", ".")
	var argErr *ArgError
	assert.ErrorAs(t, err, &argErr)
	assert.Equal(t, "num", argErr.Name)
}

func TestArgs_RequireString(t *testing.T) {
	_, err := Args{}.RequireString("host", "No host specified")
	assert.EqualError(t, err, "No host specified")

	_, err = Args{"host": ""}.RequireString("host", "No host specified")
	assert.EqualError(t, err, "No host specified")

	v, err := Args{"host": "example.com"}.RequireString("host", "No host specified")
	require.NoError(t, err)
	assert.Equal(t, "example.com", v)
}

func TestArgs_Int(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{"absent uses default", nil, 10, false},
		{"float64 integral", 5.0, 5, false},
		{"json number", json.Number("7"), 7, false},
		{"int", 3, 3, false},
		{"fractional", 2.5, 0, true},
		{"string", "5", 0, true},
		{"json number fractional", json.Number("1.5"), 0, true},
		{"too large", 1e12, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := Args{}
			if tc.value != nil {
				args["limit"] = tc.value
			}
			got, err := args.Int("limit", 10)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

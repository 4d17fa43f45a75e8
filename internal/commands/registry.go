// Package commands holds the fixed set of operations the server can run on
// behalf of a client. The set is built once at startup and only read afterwards.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Handler runs one command. A returned error is reported to the client as the
// response error message, so it must be short and must not carry stack traces.
type Handler func(ctx context.Context, args Args) (any, error)

// Argument types a command can declare.
const (
	TypeString = "string"
	TypeInt    = "int"
)

// ArgSpec documents one argument a command accepts.
type ArgSpec struct {
	Name     string
	Type     string // TypeString or TypeInt
	Required bool
	Default  any
}

// Spec describes one registered command.
type Spec struct {
	Name        string
	Description string
	Args        []ArgSpec
	Handler     Handler
}

// Arg returns the declared argument called name.
func (s Spec) Arg(name string) (ArgSpec, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// Usage renders the command line form, e.g. "ping host=<host> [count=4]".
func (s Spec) Usage() string {
	var b strings.Builder
	b.WriteString(s.Name)
	for _, a := range s.Args {
		b.WriteByte(' ')
		switch {
		case a.Required:
			fmt.Fprintf(&b, "%s=<%s>", a.Name, a.Name)
		case a.Default == nil || a.Default == "":
			fmt.Fprintf(&b, "[%s=<%s>]", a.Name, a.Name)
		default:
			fmt.Fprintf(&b, "[%s=%v]", a.Name, a.Default)
		}
	}
	return b.String()
}

// Registry maps command names to their specs. It has no mutating methods,
// so one instance is safely shared by every connection.
type Registry struct {
	specs map[string]Spec
	names []string
}

// Options tunes the built-in handlers.
type Options struct {
	// PingTimeout bounds a ping invocation. Zero waits for the ping binary to exit.
	PingTimeout time.Duration
}

// NewRegistryFrom builds a registry from the given specs.
func NewRegistryFrom(specs ...Spec) (*Registry, error) {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("command spec has empty name")
		}
		if s.Handler == nil {
			return nil, fmt.Errorf("command %q has no handler", s.Name)
		}
		if _, dup := r.specs[s.Name]; dup {
			return nil, fmt.Errorf("command %q registered twice", s.Name)
		}
		r.specs[s.Name] = s
		r.names = append(r.names, s.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// NewRegistry returns the registry holding every built-in command.
func NewRegistry(opts Options) *Registry {
	r, err := NewRegistryFrom(builtins(opts)...)
	if err != nil {
		// builtin names are fixed at compile time
		panic(err)
	}
	return r
}

// Lookup finds a command by exact, case-sensitive name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the sorted command names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.names)
}

func builtins(opts Options) []Spec {
	return []Spec{
		{Name: "sysinfo", Description: "Get system information", Handler: SysInfo},
		{
			Name:        "listdir",
			Description: "List contents of a directory",
			Args:        []ArgSpec{{Name: "path", Type: TypeString, Default: "."}},
			Handler:     ListDir,
		},
		{
			Name:        "diskspace",
			Description: "Get disk space information",
			Args:        []ArgSpec{{Name: "path", Type: TypeString, Default: "."}},
			Handler:     DiskSpace,
		},
		{
			Name:        "processlist",
			Description: "List running processes by memory usage",
			Args:        []ArgSpec{{Name: "limit", Type: TypeInt, Default: DefaultProcessLimit}},
			Handler:     ProcessList,
		},
		{Name: "meminfo", Description: "Get memory usage information", Handler: MemInfo},
		{Name: "netinfo", Description: "Get network interfaces information", Handler: NetInfo},
		{
			Name:        "fileinfo",
			Description: "Get information about a specific file",
			Args:        []ArgSpec{{Name: "path", Type: TypeString, Required: true}},
			Handler:     FileInfo,
		},
		{Name: "uptime", Description: "Get system uptime", Handler: Uptime},
		{Name: "hostname", Description: "Get the system hostname", Handler: Hostname},
		{
			Name:        "echo",
			Description: "Echo a message back",
			Args:        []ArgSpec{{Name: "message", Type: TypeString, Default: ""}},
			Handler:     Echo,
		},
		{
			Name:        "ping",
			Description: "Ping a remote host",
			Args: []ArgSpec{
				{Name: "host", Type: TypeString, Required: true},
				{Name: "count", Type: TypeInt, Default: DefaultPingCount},
			},
			Handler: NewPing(opts.PingTimeout),
		},
		{
			Name:        "findfile",
			Description: "Find files whose name contains a pattern",
			Args: []ArgSpec{
				{Name: "pattern", Type: TypeString, Required: true},
				{Name: "path", Type: TypeString, Default: "."},
			},
			Handler: FindFile,
		},
	}
}

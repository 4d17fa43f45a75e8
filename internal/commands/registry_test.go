package commands

import (
	"context"
	"testing"
)

func TestNewRegistry_HasFixedCommandSet(t *testing.T) {
	r := NewRegistry(Options{})

	want := []string{"diskspace", "echo", "fileinfo", "findfile", "hostname", "listdir",
		"meminfo", "netinfo", "ping", "processlist", "sysinfo", "uptime"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Expected %d commands, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected command %d to be %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRegistry_LookupIsCaseSensitive(t *testing.T) {
	r := NewRegistry(Options{})

	if _, ok := r.Lookup("echo"); !ok {
		t.Error("Expected echo to be registered")
	}
	if _, ok := r.Lookup("ECHO"); ok {
		t.Error("Expected ECHO lookup to miss")
	}
	if _, ok := r.Lookup("frobnicate"); ok {
		t.Error("Expected frobnicate lookup to miss")
	}
}

func TestRegistry_NamesReturnsCopy(t *testing.T) {
	r := NewRegistry(Options{})
	names := r.Names()
	names[0] = "mutated"

	if r.Names()[0] == "mutated" {
		t.Error("Expected Names to return a copy")
	}
}

func TestNewRegistryFrom_RejectsBadSpecs(t *testing.T) {
	noop := func(context.Context, Args) (any, error) { return nil, nil }

	if _, err := NewRegistryFrom(Spec{Name: "a", Handler: noop}, Spec{Name: "a", Handler: noop}); err == nil {
		t.Error("Expected duplicate name to fail")
	}
	if _, err := NewRegistryFrom(Spec{Name: "", Handler: noop}); err == nil {
		t.Error("Expected empty name to fail")
	}
	if _, err := NewRegistryFrom(Spec{Name: "nil"}); err == nil {
		t.Error("Expected nil handler to fail")
	}
}

func TestSpec_UsageAndArgs(t *testing.T) {
	r := NewRegistry(Options{})

	cases := map[string]string{
		"sysinfo":  "sysinfo",
		"ping":     "ping host=<host> [count=4]",
		"findfile": "findfile pattern=<pattern> [path=.]",
		"echo":     "echo [message=<message>]",
	}
	for name, want := range cases {
		spec, ok := r.Lookup(name)
		if !ok {
			t.Fatalf("Expected %s to be registered", name)
		}
		if got := spec.Usage(); got != want {
			t.Errorf("Expected usage %q, got %q", want, got)
		}
	}

	ping, _ := r.Lookup("ping")
	if arg, ok := ping.Arg("count"); !ok || arg.Type != TypeInt {
		t.Errorf("Expected ping count to be an int argument, got %+v", arg)
	}
	if _, ok := ping.Arg("message"); ok {
		t.Error("Expected ping to have no message argument")
	}
	for _, name := range r.Names() {
		if spec, _ := r.Lookup(name); spec.Description == "" {
			t.Errorf("Expected %s to have a description", name)
		}
	}
}

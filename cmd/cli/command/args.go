package command

import (
	"fmt"
	"strconv"
	"strings"

	"rcmd/internal/commands"
)

// known holds the server's command table; the client reads argument types
// and help text from it.
var known = commands.NewRegistry(commands.Options{})

// ParseArgs turns key=value pairs into a request args object. Values are sent
// as strings unless command declares the key as an integer argument.
func ParseArgs(command string, pairs []string) (map[string]any, error) {
	spec, _ := known.Lookup(command)
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		if arg, ok := spec.Arg(key); ok && arg.Type == commands.TypeInt {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid argument %q: must be an integer", key)
			}
			args[key] = n
			continue
		}
		args[key] = value
	}
	return args, nil
}

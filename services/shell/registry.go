// Package shell runs console command lines against a registry of named
// commands.
package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// ErrNotFound is returned by Execute for an unregistered command name.
var ErrNotFound = errors.New("command not found")

// Command is one shell command. args excludes the command name.
type Command interface {
	Run(args []string, out io.Writer) error
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc func(args []string, out io.Writer) error

func (f CommandFunc) Run(args []string, out io.Writer) error { return f(args, out) }

// Spec describes a command for registration.
type Spec struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	Cmd     Command
}

// Registry maps command names and aliases to commands. It is used from the
// console task only.
type Registry struct {
	primary map[string]Spec
	lookup  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		primary: make(map[string]Spec),
		lookup:  make(map[string]string),
	}
}

// Register adds a command. Names and aliases must be unique.
func (r *Registry) Register(spec Spec) error {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return errors.New("shell registry: empty command name")
	}
	if spec.Cmd == nil {
		return fmt.Errorf("shell registry: %q has no handler", spec.Name)
	}
	if _, ok := r.lookup[spec.Name]; ok {
		return fmt.Errorf("shell registry: duplicate command %q", spec.Name)
	}

	r.primary[spec.Name] = spec
	r.lookup[spec.Name] = spec.Name

	for _, alias := range spec.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if _, ok := r.lookup[alias]; ok {
			return fmt.Errorf("shell registry: duplicate alias %q", alias)
		}
		r.lookup[alias] = spec.Name
	}
	return nil
}

// Resolve looks up a command by name or alias.
func (r *Registry) Resolve(name string) (Spec, bool) {
	primary, ok := r.lookup[strings.TrimSpace(name)]
	if !ok {
		return Spec{}, false
	}
	spec, ok := r.primary[primary]
	return spec, ok
}

// Names returns the primary command names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.primary))
	for name := range r.primary {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Execute splits line with shell quoting rules and runs the named command.
// A blank line is a no-op.
func (r *Registry) Execute(line string, out io.Writer) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	spec, ok := r.Resolve(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, args[0])
	}
	return spec.Cmd.Run(args[1:], out)
}

// Package shell parses command lines, runs them against the engine,
// and renders the results.
package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matsen/primdb/internal/engine"
	"github.com/matsen/primdb/internal/parser"
)

// ErrUnknownCommand is returned for a command word the shell does not know.
var ErrUnknownCommand = errors.New("unknown command")

// UsageError reports a command line that does not match its grammar.
type UsageError struct {
	Command string
	Usage   string
	Err     error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s command: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("invalid %s command", e.Command)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Shell dispatches command lines to the engine.
type Shell struct {
	engine   *engine.Engine
	render   Renderer
	confirm  Confirmer
	timing   bool
	now      func() time.Time
	commands map[string]*command
}

// Option configures a Shell.
type Option func(*Shell)

// WithConfirmer sets how destructive commands are confirmed.
// The default confirms everything.
func WithConfirmer(c Confirmer) Option {
	return func(s *Shell) {
		s.confirm = c
	}
}

// WithTiming turns elapsed-time reports for data commands on or off.
func WithTiming(on bool) Option {
	return func(s *Shell) {
		s.timing = on
	}
}

// WithClock replaces time.Now for timing reports.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) {
		s.now = now
	}
}

// New returns a shell over e writing through r.
func New(e *engine.Engine, r Renderer, opts ...Option) *Shell {
	s := &Shell{
		engine:   e,
		render:   r,
		confirm:  AutoConfirm{},
		now:      time.Now,
		commands: make(map[string]*command),
	}
	for _, c := range commandTable() {
		s.commands[c.name] = c
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one command line. It reports whether the line asked to quit.
// Any error has already been rendered; it is returned so one-shot callers can
// choose an exit code.
func (s *Shell) Execute(line string) (quit bool, err error) {
	tokens := parser.Tokenize(line)
	if len(tokens) == 0 {
		return false, nil
	}

	name := strings.ToLower(tokens[0])
	if name == "exit" {
		return true, nil
	}

	cmd, ok := s.commands[name]
	if !ok {
		err := fmt.Errorf("%w %q (type 'help' for the list of commands)", ErrUnknownCommand, tokens[0])
		s.render.Error(err)
		return false, err
	}

	run, err := cmd.parse(s, tokens)
	if err != nil {
		err = &UsageError{Command: cmd.name, Usage: cmd.usage, Err: err}
		s.render.Error(err)
		return false, err
	}

	var elapsed time.Duration
	measured := false

	mws := []middleware{recovering(cmd.name)}
	if cmd.confirm != nil {
		mws = append(mws, confirmed(s.confirm, cmd.confirm(tokens)))
	}
	if cmd.timed && s.timing {
		mws = append(mws, timed(s.now, func(d time.Duration) {
			elapsed = d
			measured = true
		}))
	}

	result, err := chain(run, mws...)()
	if err != nil {
		slog.Debug("command failed", "command", cmd.name, "error", err)
		s.render.Error(err)
		return false, err
	}

	if err := s.render.Result(result); err != nil {
		return false, err
	}
	if measured {
		s.render.Timing(cmd.name, elapsed)
	}
	return false, nil
}

// Commands returns the command words the shell accepts, in help order.
func (s *Shell) Commands() []string {
	names := []string{}
	for _, c := range commandTable() {
		names = append(names, c.name)
	}
	return append(names, "exit")
}

// Tables lists the current table names, for completion.
// Errors yield no names.
func (s *Shell) Tables() []string {
	list, err := s.engine.ListTables()
	if err != nil {
		return nil
	}
	var names []string
	for name := range list.Tables {
		names = append(names, name)
	}
	return names
}

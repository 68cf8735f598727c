package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Prompt is shown before each command line.
const Prompt = "primdb> "

// ErrInterrupted is returned by a LineReader when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads one line of input at a time.
// It returns io.EOF at end of input and ErrInterrupted on Ctrl+C.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// readlineReader reads from a terminal with editing, history, and completion.
type readlineReader struct {
	rl *readline.Instance
}

// NewReadlineReader returns a terminal reader. An empty historyFile disables history.
func NewReadlineReader(historyFile string, completer readline.AutoCompleter) (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:      true,
		DisableAutoSaveHistory: true,
		FuncFilterInputRune:    filterInput,
	})
	if err != nil {
		return nil, fmt.Errorf("starting line editor: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

// filterInput filters input runes for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false // Disable Ctrl+Z
	}
	return r, true
}

// ReadLine reads a command and records it in the history.
func (r *readlineReader) ReadLine(prompt string) (string, error) {
	line, err := r.ReadAnswer(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		if err := r.rl.SaveHistory(line); err != nil {
			return "", fmt.Errorf("saving history: %w", err)
		}
	}
	return line, nil
}

// ReadAnswer reads a reply to a question without recording it in the history.
func (r *readlineReader) ReadAnswer(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

// scannerReader reads lines from a plain stream, for piped input.
type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader returns a reader over in. Prompts are written to out
// when it is non-nil.
func NewScannerReader(in io.Reader, out io.Writer) LineReader {
	return &scannerReader{scanner: bufio.NewScanner(in), out: out}
}

func (r *scannerReader) ReadLine(prompt string) (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) Close() error {
	return nil
}

// NewCompleter builds tab completion for command words and keywords.
// Table names come from tables, called on each completion.
func NewCompleter(tables func() []string) *readline.PrefixCompleter {
	names := func(string) []string { return tables() }
	tableItem := readline.PcItemDynamic(names)

	return readline.NewPrefixCompleter(
		readline.PcItem("create_table"),
		readline.PcItem("drop_table", tableItem),
		readline.PcItem("list_tables"),
		readline.PcItem("insert", readline.PcItem("into", readline.PcItemDynamic(names, readline.PcItem("values")))),
		readline.PcItem("select", readline.PcItem("from", tableItem)),
		readline.PcItem("update", tableItem),
		readline.PcItem("delete", readline.PcItem("from", tableItem)),
		readline.PcItem("info", tableItem),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Run reads and executes commands until exit, end of input, or Ctrl+C.
// Command errors are reported and the loop continues.
func (s *Shell) Run(r LineReader) error {
	s.render.Notice("primdb: type 'help' for commands, 'exit' to quit")

	for {
		line, err := r.ReadLine(Prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
			s.render.Notice("Goodbye.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if quit, _ := s.Execute(line); quit {
			s.render.Notice("Goodbye.")
			return nil
		}
	}
}

// Confirmer decides whether a destructive command may run.
type Confirmer interface {
	Confirm(action string) (bool, error)
}

// AutoConfirm approves everything.
type AutoConfirm struct{}

// Confirm always returns true.
func (AutoConfirm) Confirm(string) (bool, error) {
	return true, nil
}

// answerReader is a LineReader that can read replies outside the command history.
type answerReader interface {
	ReadAnswer(prompt string) (string, error)
}

// PromptConfirmer asks on the shell's own input; only "y" or "yes" approves.
// Answers are kept out of the command history when the reader supports it.
type PromptConfirmer struct {
	Reader LineReader
}

// Confirm asks whether to perform action.
func (p PromptConfirmer) Confirm(action string) (bool, error) {
	read := p.Reader.ReadLine
	if ar, ok := p.Reader.(answerReader); ok {
		read = ar.ReadAnswer
	}

	answer, err := read(fmt.Sprintf("Really %s? [y/N]: ", action))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

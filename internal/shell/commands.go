package shell

import (
	"errors"
	"strings"

	"github.com/matsen/primdb/internal/parser"
)

// command describes one grammar rule.
type command struct {
	name        string
	usage       string
	description string
	timed       bool

	// confirm names the action to confirm, or is nil when no confirmation is needed.
	confirm func(tokens []string) string

	// parse validates the tokens and returns the operation to run.
	parse func(s *Shell, tokens []string) (op, error)
}

var (
	errArgCount   = errors.New("wrong number of arguments")
	errNoColumns  = errors.New("at least one column is required")
	errNoWhere    = errors.New("missing where clause")
	errBadKeyword = errors.New("unexpected keyword")
)

// keyword reports whether tokens[i] is the keyword kw, ignoring case.
func keyword(tokens []string, i int, kw string) bool {
	return i < len(tokens) && strings.EqualFold(tokens[i], kw)
}

// HelpEntry is one line of help.
type HelpEntry struct {
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

// HelpResult lists the available commands.
type HelpResult struct {
	Commands []HelpEntry `json:"commands"`
	Examples []string    `json:"examples"`
}

// commandTable returns the grammar in help order.
func commandTable() []*command {
	return []*command{
		{
			name:        "create_table",
			usage:       "create_table <table> <column:type> [<column:type> ...]",
			description: "create a table (types: int, str, bool)",
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) < 3 {
					if len(tokens) == 2 {
						return nil, errNoColumns
					}
					return nil, errArgCount
				}
				table, specs := tokens[1], tokens[2:]
				return func() (any, error) {
					return s.engine.CreateTable(table, specs)
				}, nil
			},
		},
		{
			name:        "list_tables",
			usage:       "list_tables",
			description: "list all tables",
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) != 1 {
					return nil, errArgCount
				}
				return func() (any, error) {
					return s.engine.ListTables()
				}, nil
			},
		},
		{
			name:        "drop_table",
			usage:       "drop_table <table>",
			description: "drop a table and its records",
			confirm: func(tokens []string) string {
				return "drop table " + tokens[1]
			},
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) != 2 {
					return nil, errArgCount
				}
				table := tokens[1]
				return func() (any, error) {
					return s.engine.DropTable(table)
				}, nil
			},
		},
		{
			name:        "insert",
			usage:       "insert into <table> values (<value>, <value>, ...)",
			description: "add a record",
			timed:       true,
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) < 4 || !keyword(tokens, 1, "into") || !keyword(tokens, 3, "values") {
					return nil, errBadKeyword
				}
				table := tokens[2]
				literal := strings.Join(tokens[4:], " ")
				return func() (any, error) {
					return s.engine.Insert(table, literal)
				}, nil
			},
		},
		{
			name:        "select",
			usage:       "select from <table> [where <column> = <value>]",
			description: "read records",
			timed:       true,
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) < 3 || !keyword(tokens, 1, "from") {
					return nil, errBadKeyword
				}
				table := tokens[2]

				var where *parser.Clause
				if len(tokens) > 3 {
					if !keyword(tokens, 3, "where") {
						return nil, errBadKeyword
					}
					cond, err := parser.ParseCondition(tokens[4:])
					if err != nil {
						return nil, err
					}
					where = &cond
				}
				return func() (any, error) {
					return s.engine.Select(table, where)
				}, nil
			},
		},
		{
			name:        "update",
			usage:       "update <table> set <column> = <value> where <column> = <value>",
			description: "change matching records",
			timed:       true,
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) < 4 || !keyword(tokens, 2, "set") {
					return nil, errBadKeyword
				}
				table := tokens[1]

				whereIdx := -1
				for i := 4; i < len(tokens); i++ {
					if keyword(tokens, i, "where") {
						whereIdx = i
						break
					}
				}
				if whereIdx < 0 {
					return nil, errNoWhere
				}

				set, err := parser.ParseAssignment(tokens[3:whereIdx])
				if err != nil {
					return nil, err
				}
				where, err := parser.ParseCondition(tokens[whereIdx+1:])
				if err != nil {
					return nil, err
				}
				return func() (any, error) {
					return s.engine.Update(table, set, where)
				}, nil
			},
		},
		{
			name:        "delete",
			usage:       "delete from <table> where <column> = <value>",
			description: "remove matching records",
			timed:       true,
			confirm: func(tokens []string) string {
				return "delete records from " + tokens[2]
			},
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) < 3 || !keyword(tokens, 1, "from") {
					return nil, errBadKeyword
				}
				if !keyword(tokens, 3, "where") {
					return nil, errNoWhere
				}
				table := tokens[2]
				where, err := parser.ParseCondition(tokens[4:])
				if err != nil {
					return nil, err
				}
				return func() (any, error) {
					return s.engine.Delete(table, where)
				}, nil
			},
		},
		{
			name:        "info",
			usage:       "info <table>",
			description: "show a table's columns and record count",
			parse: func(s *Shell, tokens []string) (op, error) {
				if len(tokens) != 2 {
					return nil, errArgCount
				}
				table := tokens[1]
				return func() (any, error) {
					return s.engine.Info(table)
				}, nil
			},
		},
		{
			name:        "help",
			usage:       "help",
			description: "show this help",
			parse: func(s *Shell, tokens []string) (op, error) {
				return func() (any, error) {
					return help(), nil
				}, nil
			},
		},
	}
}

// help builds the help listing from the command table.
func help() *HelpResult {
	h := &HelpResult{
		Examples: []string{
			"create_table users name:str age:int is_active:bool",
			`insert into users values ("Ivan", 25, true)`,
			"select from users where age = 25",
			"update users set age = 26 where name = Ivan",
			"delete from users where ID = 1",
		},
	}
	for _, c := range commandTable() {
		h.Commands = append(h.Commands, HelpEntry{Usage: c.usage, Description: c.description})
	}
	h.Commands = append(h.Commands, HelpEntry{Usage: "exit", Description: "leave the shell"})
	return h
}

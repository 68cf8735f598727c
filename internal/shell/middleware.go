package shell

import (
	"fmt"
	"log/slog"
	"time"
)

// op is a parsed command ready to run.
type op func() (any, error)

// middleware wraps an op with a cross-cutting concern.
type middleware func(op) op

// chain applies mws so the first one is outermost.
func chain(o op, mws ...middleware) op {
	for i := len(mws) - 1; i >= 0; i-- {
		o = mws[i](o)
	}
	return o
}

// recovering turns a panic inside a command into an error.
func recovering(name string) middleware {
	return func(next op) op {
		return func() (result any, err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Debug("recovered panic", "command", name, "panic", r)
					result, err = nil, fmt.Errorf("unexpected error in %s: %v", name, r)
				}
			}()
			return next()
		}
	}
}

// Cancelled is the result of a command the user declined to confirm.
type Cancelled struct {
	Action string `json:"action"`
}

// confirmed asks c before running the command.
// A declined or failed prompt yields Cancelled without running it.
func confirmed(c Confirmer, action string) middleware {
	return func(next op) op {
		return func() (any, error) {
			ok, err := c.Confirm(action)
			if err != nil {
				slog.Debug("confirmation failed", "action", action, "error", err)
			}
			if err != nil || !ok {
				return &Cancelled{Action: action}, nil
			}
			return next()
		}
	}
}

// timed measures successful commands and passes the duration to report.
func timed(now func() time.Time, report func(time.Duration)) middleware {
	return func(next op) op {
		return func() (any, error) {
			start := now()
			result, err := next()
			if err == nil {
				report(now().Sub(start))
			}
			return result, err
		}
	}
}

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CommandContext derives the context of a single command from the session
// context. The CLI passes a signal.NotifyContext wrapper so Ctrl-C cancels
// the running command and returns to the prompt.
type CommandContext func(parent context.Context) (context.Context, context.CancelFunc)

// Run reads commands until exit, end of input or cancellation of ctx.
func (r *Router) Run(ctx context.Context, commandContext CommandContext) error {
	if commandContext == nil {
		commandContext = context.WithCancel
	}

	r.println("Ledger console. Type 'help' for commands.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.out, "> ")
		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("Run: read command: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			cmdCtx, cancel := commandContext(ctx)
			routeErr := r.Route(cmdCtx, line)
			cancel()

			if errors.Is(routeErr, ErrExit) {
				return nil
			}
			if routeErr != nil {
				r.println("Error: " + routeErr.Error())
			}
		}

		if errors.Is(err, io.EOF) {
			r.println("")
			return nil
		}
	}
}

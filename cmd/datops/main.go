// Command datops converts, compares, merges and filters DAT exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/datops/internal/core"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(stdout, stderr)
	defer a.close()

	cmd := a.rootCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var uerr usageError
	if errors.As(err, &uerr) || !a.started {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		fmt.Fprintf(a.stderr, "Run 'datops --help' for usage.\n")
		return exitUsage
	}

	slog.Debug("command failed", "error", err)
	fmt.Fprintf(a.stderr, "error: %v\n", err)
	if core.IsUserFacing(err) {
		fmt.Fprintf(a.stderr, "%s\n", core.FormatUserError(err))
	}
	return exitFailed
}

// usageError marks a bad invocation (exit code 2).
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/dat"
)

// OperationTimeout bounds a single menu action.
var OperationTimeout = 10 * time.Minute

// run wraps fn as a command with a timeout; errors become ErrMsg.
func (m *Model) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()

		summary, err := fn(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg(summary)
	}
}

func (m *Model) inspect(path string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		res, err := m.svc.Inspect(ctx, core.InspectRequest{File: path, Input: m.input})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s, %d fields, %d rows, %d malformed, schema %s",
			filepath.Base(path), res.Encoding, len(res.Header), res.Rows, res.Malformed, dat.ShortKey(res.SchemaKey)), nil
	})
}

func (m *Model) convert(path, format string) tea.Cmd {
	out := m.output
	out.Format = format
	return m.run(func(ctx context.Context) (string, error) {
		res, err := m.svc.Convert(ctx, core.ConvertRequest{File: path, Output: out, Input: m.input})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("wrote %d rows to %s (%d skipped)", res.RowsOut, res.Output, res.Skipped), nil
	})
}

func (m *Model) merge(files []string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		res, err := m.svc.Merge(ctx, core.MergeRequest{Files: files, Output: m.output, Input: m.input})
		if err != nil {
			return "", err
		}
		var outs []string
		for _, g := range res.Groups {
			outs = append(outs, fmt.Sprintf("%s (%d rows)", filepath.Base(g.Output), g.Rows))
		}
		msg := fmt.Sprintf("merged into %s", strings.Join(outs, ", "))
		if n := len(res.Excluded); n > 0 {
			msg += fmt.Sprintf("; %d files excluded", n)
		}
		return msg, nil
	})
}

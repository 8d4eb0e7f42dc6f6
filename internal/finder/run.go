package finder

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dshills/stdland/internal/searcher"
)

// Run starts the interactive finder on in/out and returns the URL picked
// with Enter, or "" when the user quit
func Run(ctx context.Context, s *searcher.Searcher, opts Options, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(
		NewModel(ctx, s, opts),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("finder: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return "", fmt.Errorf("finder: unexpected model %T", final)
	}
	return m.Chosen(), nil
}

// Package console asks for encounter decisions on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/camy47/pokesocial/internal/core/ports"
)

// Prompt reads one decision per line: c(atch), r(eroll) or anything else to let go.
type Prompt struct {
	In  *bufio.Reader
	Out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{In: bufio.NewReader(in), Out: out}
}

var _ ports.Interaction = (*Prompt)(nil)

func (p *Prompt) Confirm(ctx context.Context, title, body string) (ports.UserAction, error) {
	fmt.Fprintf(p.Out, "\n[%s]\n%s\n\n[c] catch  [r] another  [s] let it go > ", title, body)

	type result struct {
		line string
		err  error
	}
	lines := make(chan result, 1)
	go func() {
		line, err := p.In.ReadString('\n')
		lines <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return ports.ActionSkip, ctx.Err()
	case r := <-lines:
		if r.err != nil && r.line == "" {
			return ports.ActionSkip, r.err
		}
		return parseAction(r.line), nil
	}
}

func parseAction(line string) ports.UserAction {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "c", "catch", "y", "yes":
		return ports.ActionApprove
	case "r", "reroll", "another":
		return ports.ActionRegenerate
	default:
		return ports.ActionSkip
	}
}

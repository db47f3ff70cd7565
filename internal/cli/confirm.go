package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sdejongh/camarchive/pkg/cancel"
	"github.com/sdejongh/camarchive/pkg/models"
)

// promptConfirmer asks on the terminal before a plan is executed. A stop
// request while waiting for the answer counts as a refusal.
type promptConfirmer struct {
	in    io.Reader
	out   io.Writer
	token *cancel.Token
}

func newPromptConfirmer(in io.Reader, out io.Writer, token *cancel.Token) *promptConfirmer {
	return &promptConfirmer{in: in, out: out, token: token}
}

// Confirm implements archive.Confirmer
func (p *promptConfirmer) Confirm(ctx context.Context, plan *models.ActionPlan) bool {
	fmt.Fprintf(p.out, "Proceed with %d transcodes and %d removals? [y/N]: ",
		len(plan.Transcodes), len(plan.Removals)+len(plan.CoupledRemovals()))

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.in).ReadString('\n')
		answer <- line
	}()

	select {
	case line := <-answer:
		return isYes(line)
	case <-p.token.Done():
		fmt.Fprintln(p.out)
		return false
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
)

// CommandError reports a failed assignment or script block. Command
// failures abort navigation because their side effects are already partial.
type CommandError struct {
	PassageID string
	Command   string
	Err       error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("passage '%s': command %q failed: %v", e.PassageID, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// JumpCycleError reports a jump chain that revisits a passage.
type JumpCycleError struct {
	Path []string
}

func (e *JumpCycleError) Error() string {
	return fmt.Sprintf("%v: %s", domain.ErrJumpCycle, strings.Join(e.Path, " -> "))
}

func (e *JumpCycleError) Unwrap() error {
	return domain.ErrJumpCycle
}

func describeCommand(c domain.Command) string {
	switch cmd := c.(type) {
	case *domain.SetVar:
		return cmd.Var + " = " + cmd.Expression
	case *domain.ExpressionStatement:
		return cmd.Code
	case *domain.PythonBlock:
		first, _, _ := strings.Cut(strings.TrimSpace(cmd.Code), "\n")
		return first
	}
	return c.Kind()
}

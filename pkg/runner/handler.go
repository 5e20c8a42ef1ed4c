package runner

import (
	"context"

	"github.com/aretw0/bardic/pkg/domain"
)

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a rendered passage.
	Output(ctx context.Context, out *domain.Output) error

	// Input reads the next command line: a 1-based choice number or a ':' command.
	Input(ctx context.Context) (string, error)

	// Prompt asks for the value of an input directive.
	Prompt(ctx context.Context, req domain.InputRequest) (string, error)

	// SystemOutput presents a meta-message (save confirmations, errors).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms passage text before it is written.
// This allows TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// ChoiceFormatter formats one numbered choice line.
type ChoiceFormatter func(number int, text string) string

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
)

// DefaultSaveID is the slot used by :save and :load without an argument.
const DefaultSaveID = "quicksave"

// ErrInterrupted is returned when a signal ends the loop.
var ErrInterrupted = errors.New("interrupted")

var errQuit = errors.New("quit")

// Engine is the part of the runtime the play loop drives.
type Engine interface {
	Start(ctx context.Context) (*domain.Output, error)
	Current() (*domain.Output, error)
	Goto(ctx context.Context, id string) (*domain.Output, error)
	Choose(ctx context.Context, index int) (*domain.Output, error)
	SubmitInputs(ctx context.Context, inputs map[string]string) error
	SaveState() (*domain.SaveData, error)
	LoadState(ctx context.Context, data *domain.SaveData) (*domain.Output, error)
	ResetOneTimeChoices()
	Document() *domain.Document
}

// Runner handles the play loop of the bardic engine using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdio.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store backs the :save, :load and :saves commands.
	// If nil, those commands report that saving is unavailable.
	Store ports.SaveStore

	// SaveID is the slot used when :save or :load has no argument.
	SaveID string

	// Renderer is applied by the default TextHandler.
	Renderer ContentRenderer
}

// NewRunner creates a Runner configured by opts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
		SaveID: DefaultSaveID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the play loop until the story ends, the player quits or
// input is exhausted. An engine with no output yet is started first.
func (r *Runner) Run(ctx context.Context, engine Engine) error {
	handler := r.resolveHandler()

	out, err := engine.Current()
	if errors.Is(err, domain.ErrNoOutput) {
		out, err = engine.Start(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to start story: %w", err)
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	for {
		sctx := signals.Context()

		if out != nil {
			if err := handler.Output(sctx, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			r.Logger.Debug("passage rendered", "passage_id", out.PassageID, "choices", len(out.Choices))

			if err := r.collectInputs(sctx, handler, engine, out.InputDirectives); err != nil {
				return r.inputError(signals, err)
			}
			if len(out.Choices) == 0 {
				return nil
			}
		}

		line, err := handler.Input(sctx)
		if err != nil {
			return r.inputError(signals, err)
		}

		out, err = r.dispatch(sctx, handler, engine, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (r *Runner) inputError(signals *SignalManager, err error) error {
	signals.CheckRace()
	if signals.Context().Err() != nil {
		r.Logger.Debug("play loop interrupted", "err", signals.Context().Err())
		return ErrInterrupted
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("input error: %w", err)
}

// collectInputs prompts for every input directive and submits the answers.
func (r *Runner) collectInputs(ctx context.Context, h IOHandler, engine Engine, reqs []domain.InputRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	values := make(map[string]string, len(reqs))
	for _, req := range reqs {
		val, err := h.Prompt(ctx, req)
		if err != nil {
			return err
		}
		values[req.Name] = val
	}
	if err := engine.SubmitInputs(ctx, values); err != nil {
		return h.SystemOutput(ctx, fmt.Sprintf("Input rejected: %v", err))
	}
	return nil
}

// dispatch executes one player line. A nil output means nothing changed and
// the loop should prompt again without re-rendering.
func (r *Runner) dispatch(ctx context.Context, h IOHandler, engine Engine, line string) (*domain.Output, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if strings.HasPrefix(line, ":") {
		return r.command(ctx, h, engine, line)
	}
	if line == "quit" || line == "exit" {
		return nil, errQuit
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return nil, h.SystemOutput(ctx, fmt.Sprintf("Unknown input %q. Type :help for commands.", line))
	}
	out, err := engine.Choose(ctx, n-1)
	if errors.Is(err, domain.ErrChoiceOutOfRange) {
		return nil, h.SystemOutput(ctx, fmt.Sprintf("No choice numbered %d.", n))
	}
	if err != nil {
		return nil, fmt.Errorf("choice error: %w", err)
	}
	return out, nil
}

func (r *Runner) command(ctx context.Context, h IOHandler, engine Engine, line string) (*domain.Output, error) {
	fields := strings.Fields(line)
	name, arg := fields[0], r.SaveID
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch name {
	case ":quit", ":q", ":exit":
		return nil, errQuit
	case ":help", ":h":
		return nil, h.SystemOutput(ctx, "Commands: <number> choose, :save [id], :load [id], :saves, :reset, :help, :quit")
	case ":reset":
		engine.ResetOneTimeChoices()
		out, err := engine.Goto(ctx, engine.Document().InitialPassage)
		if err != nil {
			return nil, fmt.Errorf("reset error: %w", err)
		}
		return out, nil
	case ":save", ":s", ":load", ":l", ":saves":
		if r.Store == nil {
			return nil, h.SystemOutput(ctx, "Saving is not available.")
		}
	default:
		return nil, h.SystemOutput(ctx, fmt.Sprintf("Unknown command %s. Type :help for commands.", name))
	}

	switch name {
	case ":save", ":s":
		data, err := engine.SaveState()
		if err != nil {
			return nil, h.SystemOutput(ctx, fmt.Sprintf("Save failed: %v", err))
		}
		data.SaveName = arg
		if err := r.Store.Save(ctx, arg, data); err != nil {
			return nil, h.SystemOutput(ctx, fmt.Sprintf("Save failed: %v", err))
		}
		r.Logger.Debug("game saved", "save_id", arg, "passage_id", data.CurrentPassageID)
		return nil, h.SystemOutput(ctx, fmt.Sprintf("Saved to %s.", arg))

	case ":load", ":l":
		data, err := r.Store.Load(ctx, arg)
		if err != nil {
			return nil, h.SystemOutput(ctx, fmt.Sprintf("Load failed: %v", err))
		}
		out, err := engine.LoadState(ctx, data)
		if err != nil {
			return nil, h.SystemOutput(ctx, fmt.Sprintf("Load failed: %v", err))
		}
		r.Logger.Debug("game loaded", "save_id", arg, "passage_id", out.PassageID)
		if err := h.SystemOutput(ctx, fmt.Sprintf("Loaded %s.", arg)); err != nil {
			return nil, err
		}
		return out, nil

	case ":saves":
		saves, err := r.Store.List(ctx)
		if err != nil {
			return nil, h.SystemOutput(ctx, fmt.Sprintf("Listing saves failed: %v", err))
		}
		if len(saves) == 0 {
			return nil, h.SystemOutput(ctx, "No saves.")
		}
		for _, s := range saves {
			msg := fmt.Sprintf("%s  %s  %s", s.ID, s.CurrentPassageID, s.Timestamp.Format("2006-01-02 15:04"))
			if err := h.SystemOutput(ctx, msg); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil, WithTextHandlerRenderer(r.Renderer))
	}
	return r.Handler
}

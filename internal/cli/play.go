package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/bardic/internal/config"
	"github.com/aretw0/bardic/internal/presentation/tui"
	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/runner"
)

// PlayOptions configures an interactive play session.
type PlayOptions struct {
	StoryPath string
	// SaveID is the default slot for :save and :load.
	SaveID string
	// Resume loads SaveID before the first passage is shown.
	Resume bool
	JSON   bool
	// Pretty enables markdown rendering, colours and the banner.
	Pretty bool
	Config config.Config
	Logger *slog.Logger

	In  io.Reader
	Out io.Writer
}

// RunPlay plays a story in the terminal until it ends or the player quits.
func RunPlay(ctx context.Context, opts PlayOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	doc, err := LoadStory(opts.StoryPath, logger)
	if err != nil {
		return err
	}
	engine, err := runtime.NewEngine(doc, EngineOptions(opts.Config.Engine, logger)...)
	if err != nil {
		return err
	}

	stores, err := OpenStores(ctx, opts.Config.Store)
	if err != nil {
		return err
	}
	defer stores.Close()

	if opts.Resume {
		if err := resume(ctx, engine, stores, opts.SaveID); err != nil {
			return err
		}
		if !opts.JSON {
			printSystemMessage(opts.Out, "Resuming '%s' at '%s'.", opts.SaveID, engine.CurrentPassageID())
		}
	}

	var handler runner.IOHandler
	var renderer runner.ContentRenderer
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	case opts.Pretty:
		render, err := tui.NewRenderer("", 80)
		if err != nil {
			logger.Warn("markdown renderer unavailable", "err", err)
		} else {
			renderer = render
		}
		tui.PrintBanner(opts.Out, doc.Metadata["title"])
		handler = runner.NewTextHandler(opts.In, opts.Out,
			runner.WithTextHandlerRenderer(renderer),
			runner.WithChoiceFormatter(tui.ChoiceFormatter(opts.Out)),
		)
	default:
		handler = runner.NewTextHandler(opts.In, opts.Out)
	}

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithStore(stores.Saves),
		runner.WithSaveID(opts.SaveID),
		runner.WithLogger(logger),
	)
	return HandleExecutionError(r.Run(ctx, engine))
}

func resume(ctx context.Context, engine *runtime.Engine, stores *Stores, saveID string) error {
	if saveID == "" {
		saveID = runner.DefaultSaveID
	}
	data, err := stores.Saves.Load(ctx, saveID)
	if err != nil {
		return fmt.Errorf("resume %s: %w", saveID, err)
	}
	if data.StoryID != "" && data.StoryID != engine.Document().StoryID() {
		return fmt.Errorf("resume %s: %w: save belongs to story %q", saveID, errWrongStory, data.StoryID)
	}
	_, err = engine.LoadState(ctx, data)
	return err
}

var errWrongStory = errors.New("save is for another story")

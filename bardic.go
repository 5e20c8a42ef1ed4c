package bardic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/registry"
	"github.com/aretw0/bardic/pkg/schema"
)

// Version is the bardic release.
const Version = "0.1.0"

// Engine runs a compiled story. See the runtime methods Goto, Choose,
// SubmitInputs, SaveState and LoadState.
type Engine = runtime.Engine

// Option configures an Engine.
type Option = runtime.EngineOption

// PostProcessor adds framework-specific fields to an evaluated render directive.
type PostProcessor = runtime.PostProcessor

// Compile compiles .bard source text. Includes are resolved relative to the
// working directory.
func Compile(source string) (*domain.Document, error) {
	return compiler.Compile(source)
}

// CompileFile compiles a .bard file, resolving includes relative to it.
func CompileFile(path string) (*domain.Document, error) {
	return compiler.CompileFile(path)
}

// Marshal encodes a compiled document as indented JSON.
func Marshal(doc *domain.Document) ([]byte, error) {
	return compiler.Marshal(doc)
}

// LoadDocument decodes and validates a compiled JSON story.
func LoadDocument(data []byte) (*domain.Document, error) {
	return schema.DecodeDocument(data)
}

// New creates an engine for doc and navigates to its initial passage.
func New(ctx context.Context, doc *domain.Document, opts ...Option) (*Engine, error) {
	e, err := runtime.NewEngine(doc, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := e.Start(ctx); err != nil {
		return nil, fmt.Errorf("start story: %w", err)
	}
	return e, nil
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option { return runtime.WithLogger(l) }

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option { return runtime.WithLifecycleHooks(h) }

// WithContext seeds story variables before the first passage runs.
func WithContext(bindings map[string]any) Option { return runtime.WithContext(bindings) }

// WithDirectiveEvaluation toggles evaluation of @render arguments.
func WithDirectiveEvaluation(enabled bool) Option { return runtime.WithDirectiveEvaluation(enabled) }

// WithReplayOnLoad controls whether LoadState re-runs the saved passage's commands.
func WithReplayOnLoad(enabled bool) Option { return runtime.WithReplayOnLoad(enabled) }

// WithRegistry sets the registry used to save and restore custom objects.
func WithRegistry(r *registry.Registry) Option { return runtime.WithRegistry(r) }

// WithPostProcessor registers p for render directives whose framework hint is hint.
func WithPostProcessor(hint string, p PostProcessor) Option {
	return runtime.WithPostProcessor(hint, p)
}

// WithModules adds host modules that story imports can name.
func WithModules(modules map[string]any) Option { return runtime.WithModules(modules) }

// WithStoryIdentity sets the story id and name written into saves.
func WithStoryIdentity(id, name string) Option { return runtime.WithStoryIdentity(id, name) }

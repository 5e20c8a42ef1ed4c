package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"time"

	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/registry"
	"github.com/aretw0/bardic/pkg/script"
)

// Engine executes a compiled story. It owns one mutable variable table and
// is not safe for concurrent use; hosts serving several players give each
// session its own Engine.
type Engine struct {
	doc    *domain.Document
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	evaluateDirectives bool
	replayOnLoad       bool
	postProcessors     map[string]PostProcessor
	registry           *registry.Registry
	modules            map[string]script.Value
	storyID            string
	storyName          string

	env       *script.Env
	currentID string
	output    *domain.Output
	used      map[domain.ChoiceKey]bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithContext supplies read-only host bindings visible to every expression
// and script block. Go functions are wrapped so stories can call them.
func WithContext(bindings map[string]any) EngineOption {
	return func(e *Engine) {
		for name, v := range bindings {
			e.env.Context[name] = hostValue(name, v)
		}
	}
}

// WithDirectiveEvaluation controls whether render directive arguments are
// evaluated (the default) or passed through raw.
func WithDirectiveEvaluation(enabled bool) EngineOption {
	return func(e *Engine) {
		e.evaluateDirectives = enabled
	}
}

// WithReplayOnLoad controls whether LoadState re-runs the saved passage's
// commands (the default) or only renders it.
func WithReplayOnLoad(enabled bool) EngineOption {
	return func(e *Engine) {
		e.replayOnLoad = enabled
	}
}

// WithPostProcessor registers a directive post-processor for a framework
// hint, replacing any existing one.
func WithPostProcessor(hint string, p PostProcessor) EngineOption {
	return func(e *Engine) {
		e.postProcessors[hint] = p
	}
}

// WithRegistry sets the type registry used to save and restore objects.
func WithRegistry(r *registry.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithModules adds modules importable by the story.
func WithModules(modules map[string]any) EngineOption {
	return func(e *Engine) {
		for name, m := range modules {
			e.modules[name] = hostValue(name, m)
		}
	}
}

// WithStoryIdentity overrides the story id and name recorded in saves.
func WithStoryIdentity(id, name string) EngineOption {
	return func(e *Engine) {
		e.storyID = id
		e.storyName = name
	}
}

// NewEngine validates doc and prepares an engine for it. The story's
// imports are executed here; nothing is rendered until Start or Goto.
func NewEngine(doc *domain.Document, opts ...EngineOption) (*Engine, error) {
	if doc == nil || len(doc.Passages) == 0 {
		return nil, fmt.Errorf("invalid document: no passages")
	}
	if _, ok := doc.Passages[doc.InitialPassage]; !ok {
		return nil, fmt.Errorf("invalid document: initial passage '%s': %w", doc.InitialPassage, domain.ErrPassageNotFound)
	}

	e := &Engine{
		doc:                doc,
		logger:             logging.NewNop(),
		evaluateDirectives: true,
		replayOnLoad:       true,
		postProcessors:     map[string]PostProcessor{"react": ReactPostProcessor},
		registry:           registry.NewRegistry(),
		modules:            script.StdModules(),
		storyID:            doc.StoryID(),
		storyName:          doc.Metadata["title"],
		env:                script.NewEnv(nil, map[string]script.Value{}),
		used:               make(map[domain.ChoiceKey]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	e.env.Modules = e.modules
	e.env.Print = func(s string) {
		e.logger.Debug("story print", "passage", e.currentID, "text", s)
	}
	for _, stmt := range doc.Imports {
		if err := e.env.Exec(stmt); err != nil {
			return nil, fmt.Errorf("story import %q: %w", stmt, err)
		}
	}
	return e, nil
}

// Start navigates to the story's initial passage.
func (e *Engine) Start(ctx context.Context) (*domain.Output, error) {
	return e.Goto(ctx, e.doc.InitialPassage)
}

// Document returns the story being played.
func (e *Engine) Document() *domain.Document {
	return e.doc
}

// CurrentPassageID returns the passage the last navigation ended on.
func (e *Engine) CurrentPassageID() string {
	return e.currentID
}

// Current returns the output of the last navigation without re-running
// anything.
func (e *Engine) Current() (*domain.Output, error) {
	if e.output == nil {
		return nil, domain.ErrNoOutput
	}
	return e.output, nil
}

// HasChoices reports whether the current output offers any choice.
func (e *Engine) HasChoices() bool {
	return e.output != nil && len(e.output.Choices) > 0
}

// IsEnd reports whether the story has reached a passage with no choices.
func (e *Engine) IsEnd() bool {
	return !e.HasChoices()
}

// StoryInfo summarizes the loaded story.
func (e *Engine) StoryInfo() domain.StoryInfo {
	return domain.StoryInfo{
		Version:        e.doc.Version,
		PassageCount:   len(e.doc.Passages),
		InitialPassage: e.doc.InitialPassage,
		CurrentPassage: e.currentID,
		Metadata:       maps.Clone(e.doc.Metadata),
	}
}

// Variables returns a copy of the story variables as plain Go values.
func (e *Engine) Variables() map[string]any {
	out := make(map[string]any, len(e.env.Vars))
	for k, v := range e.env.Vars {
		out[k] = script.ToGo(v)
	}
	return out
}

// SetVariable assigns a story variable from the host.
func (e *Engine) SetVariable(name string, value any) {
	e.env.Vars[name] = script.FromGo(value)
}

func hostValue(name string, v any) script.Value {
	if _, ok := v.(script.Callable); ok {
		return v
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		return script.WrapFunc(name, v)
	}
	return script.FromGo(v)
}

func (e *Engine) emitPassageEnter(ctx context.Context, id, from string) {
	if e.hooks.OnPassageEnter == nil {
		return
	}
	e.hooks.OnPassageEnter(ctx, &domain.PassageEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPassageEnter},
		PassageID: id,
		From:      from,
	})
}

func (e *Engine) emitJump(ctx context.Context, id, from string) {
	if e.hooks.OnJump == nil {
		return
	}
	e.hooks.OnJump(ctx, &domain.PassageEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPassageJump},
		PassageID: id,
		From:      from,
	})
}

func (e *Engine) emitChoice(ctx context.Context, index int, c domain.ChoiceView) {
	if e.hooks.OnChoice == nil {
		return
	}
	e.hooks.OnChoice(ctx, &domain.ChoiceEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventChoice},
		PassageID: e.currentID,
		Index:     index,
		Text:      c.Text,
		Target:    c.Target,
	})
}

func (e *Engine) emitInput(ctx context.Context, names []string) {
	if e.hooks.OnInput == nil {
		return
	}
	e.hooks.OnInput(ctx, &domain.InputEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventInput},
		PassageID: e.currentID,
		Names:     names,
	})
}

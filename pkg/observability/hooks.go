package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bardic/pkg/domain"
)

// Combine returns hooks that call every non-nil hook in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnPassageEnter = chain(out.OnPassageEnter, h.OnPassageEnter)
		out.OnJump = chain(out.OnJump, h.OnJump)
		out.OnChoice = chain(out.OnChoice, h.OnChoice)
		out.OnInput = chain(out.OnInput, h.OnInput)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks logs every lifecycle event at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPassageEnter: func(ctx context.Context, e *domain.PassageEvent) {
			logger.DebugContext(ctx, "passage_enter", "passage", e.PassageID, "from", e.From)
		},
		OnJump: func(ctx context.Context, e *domain.PassageEvent) {
			logger.DebugContext(ctx, "passage_jump", "passage", e.PassageID, "from", e.From)
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			logger.DebugContext(ctx, "choice",
				"passage", e.PassageID,
				"index", e.Index,
				"text", e.Text,
				"target", e.Target,
			)
		},
		OnInput: func(ctx context.Context, e *domain.InputEvent) {
			logger.DebugContext(ctx, "input", "passage", e.PassageID, "names", e.Names)
		},
	}
}

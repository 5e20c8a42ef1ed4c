package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const story = `:: Start
@input name="hero"
+ [Go] -> Hall

:: Hall
-> Room

:: Room
End`

func TestMetrics_CountEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))

	doc, err := compiler.Compile(story)
	require.NoError(t, err)
	engine, err := runtime.NewEngine(doc, runtime.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = engine.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, engine.SubmitInputs(ctx, map[string]string{"hero": "Ana"}))
	_, err = engine.Choose(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PassageVisits.WithLabelValues("Start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PassageVisits.WithLabelValues("Hall")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PassageVisits.WithLabelValues("Room")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Jumps.WithLabelValues("Hall", "Room")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Choices.WithLabelValues("Start", "Hall")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Inputs.WithLabelValues("hero")))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	out := logs.String()
	for _, msg := range []string{"passage_enter", "passage_jump", "choice", "input"} {
		assert.True(t, strings.Contains(out, "msg="+msg), "missing %s in %s", msg, out)
	}
}

func TestCombine_SkipsNil(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnChoice: func(context.Context, *domain.ChoiceEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnChoice: func(context.Context, *domain.ChoiceEvent) { calls = append(calls, "b") }}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	assert.Nil(t, hooks.OnJump)
	hooks.OnChoice(context.Background(), &domain.ChoiceEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
}

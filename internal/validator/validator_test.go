package validator_test

import (
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, src string) *validator.Report {
	t.Helper()
	doc, err := compiler.Compile(src)
	require.NoError(t, err)
	report, err := validator.ValidateGraph(doc)
	require.NoError(t, err)
	return report
}

func TestValidateGraph(t *testing.T) {
	t.Run("Valid story", func(t *testing.T) {
		r := validate(t, ":: Start\n+ [Go] -> A\n\n:: A\n-> B\n\n:: B\nThe end.")
		assert.Empty(t, r.Issues)
		assert.NoError(t, r.Err())
		assert.Equal(t, []string{"A", "B", "Start"}, r.Reachable)
		assert.Equal(t, []string{"B"}, r.Endings)
	})

	t.Run("Missing targets", func(t *testing.T) {
		r := validate(t, ":: Start\n+ [Go] -> Nowhere\n@if x:\n-> Void\n@endif")
		errs := r.Errors()
		require.Len(t, errs, 2)
		assert.Contains(t, errs[0].Message, "missing passage 'Void'")
		assert.Contains(t, errs[1].Message, "choice 'Go' targets missing passage 'Nowhere'")
		assert.ErrorContains(t, r.Err(), "found 2 errors")
	})

	t.Run("Unreachable passages", func(t *testing.T) {
		r := validate(t, ":: Start\nEnd.\n\n:: Orphan\n+ [Back] -> Start")
		assert.NoError(t, r.Err(), "unreachable passages are warnings")
		require.Len(t, r.Issues, 1)
		assert.Equal(t, validator.SeverityWarning, r.Issues[0].Severity)
		assert.Equal(t, "Orphan", r.Issues[0].Passage)
	})

	t.Run("Loops without ending", func(t *testing.T) {
		r := validate(t, ":: Start\n+ [Again] -> Start")
		require.Len(t, r.Issues, 1)
		assert.Contains(t, r.Issues[0].Message, "no reachable ending")
	})
}

func TestValidateGraph_NilDocument(t *testing.T) {
	_, err := validator.ValidateGraph(nil)
	assert.ErrorIs(t, err, validator.ErrNoDocument)
}

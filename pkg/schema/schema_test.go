package schema_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const story = `@metadata
  title: Cave

:: Start
~ gold = 3
You have {gold} gold.
@render:react stat_card(gold)
@input name="hero"
@if gold > 2:
  Rich.
  + [Spend] -> Shop
@endif
@for i in range(2):
  Step {i}
@endfor
* [Enter] -> Cave

:: Cave
-> Shop

:: Shop
Bye.`

func TestValidateDocument_CompiledStory(t *testing.T) {
	doc, err := compiler.Compile(story)
	require.NoError(t, err)
	raw, err := compiler.Marshal(doc)
	require.NoError(t, err)

	require.NoError(t, schema.ValidateDocument(raw))

	decoded, err := schema.DecodeDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, "Start", decoded.InitialPassage)
	assert.ElementsMatch(t, []string{"Start", "Cave", "Shop"}, decoded.PassageIDs())
}

func TestValidateDocument_Violations(t *testing.T) {
	raw := []byte(`{
		"version": "0.1.0",
		"passages": {
			"Start": {
				"id": "Start",
				"content": [{"type": "jump"}, {"type": "bogus"}],
				"choices": []
			}
		}
	}`)

	err := schema.ValidateDocument(raw)
	require.Error(t, err)
	errs := schema.ValidationErrors(err)
	assert.GreaterOrEqual(t, len(errs), 3, "missing initial_passage, jump target and bad type: %v", err)

	var keys []string
	for _, e := range errs {
		keys = append(keys, e.(*schema.ValidationError).Key)
	}
	assert.Contains(t, keys, "(root)")
}

func TestDecodeDocument_ChecksReferences(t *testing.T) {
	raw := []byte(`{
		"version": "0.1.0",
		"initial_passage": "Missing",
		"passages": {
			"Start": {"id": "Other", "content": [], "choices": []}
		}
	}`)

	_, err := schema.DecodeDocument(raw)
	require.Error(t, err)
	assert.Len(t, schema.ValidationErrors(err), 2)
}

func TestDecodeSave_KeepsNumbers(t *testing.T) {
	save := &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		Timestamp:        time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		CurrentPassageID: "Cave",
		State:            map[string]any{"gold": json.Number("3"), "ratio": json.Number("2.0")},
		UsedChoices:      []domain.ChoiceKey{{Passage: "Start", Text: "Enter", Target: "Cave"}},
	}
	raw, err := json.Marshal(save)
	require.NoError(t, err)

	decoded, err := schema.DecodeSave(raw)
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), decoded.State["gold"])
	assert.Equal(t, json.Number("2.0"), decoded.State["ratio"])
	assert.Equal(t, save.UsedChoices, decoded.UsedChoices)
}

func TestValidateSave_RejectsMissingFields(t *testing.T) {
	err := schema.ValidateSave([]byte(`{"version": "1.0.0", "state": {}}`))
	require.Error(t, err)
	assert.NotEmpty(t, schema.ValidationErrors(err))

	_, err = schema.DecodeSave([]byte(`not json`))
	assert.Error(t, err)
}

package registry_test

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/aretw0/bardic/pkg/registry"
	"github.com/aretw0/bardic/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Point struct {
	X, Y int
}

type Inventory struct {
	items []string
}

func (i *Inventory) SaveFields() map[string]any {
	return map[string]any{"items": i.items}
}

func TestEncode_Primitives(t *testing.T) {
	r := registry.NewRegistry()

	list := script.NewList(1, "a", script.Tuple{true, nil})
	enc, err := r.Encode(list)
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a", []any{true, nil}}, enc)

	enc, err = r.Encode(2.0)
	require.NoError(t, err)
	assert.Equal(t, json.Number("2.0"), enc)

	enc, err = r.Encode(2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, enc)

	enc, err = r.Encode(math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"_type": "repr", "state": "inf"}, enc)
}

func TestEncode_Objects(t *testing.T) {
	r := registry.NewRegistry()

	enc, err := r.Encode(&Point{X: 1, Y: 2})
	require.NoError(t, err)
	rec := enc.(map[string]any)
	assert.Equal(t, "Point", rec["_type"])
	assert.Equal(t, "github.com/aretw0/bardic/pkg/registry_test", rec["_module"])
	assert.Equal(t, map[string]any{"X": 1, "Y": 2}, rec["state"])

	enc, err = r.Encode(&Inventory{items: []string{"rope"}})
	require.NoError(t, err)
	rec = enc.(map[string]any)
	assert.Equal(t, "Inventory", rec["_type"])
	assert.Equal(t, map[string]any{"items": []any{"rope"}}, rec["state"])
}

func TestDecode_Registered(t *testing.T) {
	r := registry.NewRegistry()
	registry.RegisterStruct[Point](r)
	r.Register("Inventory", func(fields map[string]any) (any, error) {
		inv := &Inventory{}
		for _, it := range fields["items"].([]any) {
			inv.items = append(inv.items, it.(string))
		}
		return inv, nil
	})
	assert.Equal(t, []string{"Inventory", "Point"}, r.Names())

	p, err := r.Decode(map[string]any{
		"_type": "Point", "_module": "x",
		"state": map[string]any{"X": json.Number("3"), "Y": json.Number("4")},
	})
	require.NoError(t, err)
	assert.Equal(t, &Point{X: 3, Y: 4}, p)

	inv, err := r.Decode(map[string]any{"_type": "Inventory", "state": map[string]any{"items": []any{"rope"}}})
	require.NoError(t, err)
	assert.Equal(t, &Inventory{items: []string{"rope"}}, inv)
}

func TestDecode_Fallbacks(t *testing.T) {
	r := registry.NewRegistry()

	v, err := r.Decode(map[string]any{"_type": "Unknown", "state": map[string]any{"hp": json.Number("5")}})
	require.NoError(t, err)
	d, ok := v.(*script.Dict)
	require.True(t, ok)
	hp, _ := d.Get("hp")
	assert.Equal(t, 5, hp)

	v, err = r.Decode(map[string]any{"_type": "repr", "state": "<thing>"})
	require.NoError(t, err)
	assert.Equal(t, "<thing>", v)

	v, err = r.Decode(json.Number("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = r.Decode(json.Number("2.0"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestDict_KeepsInsertionOrder(t *testing.T) {
	r := registry.NewRegistry()

	d := script.NewDict()
	for _, k := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, d.Set(k, len(k)))
	}
	enc, err := r.Encode(d)
	require.NoError(t, err)

	// Through JSON, the way file and redis saves travel.
	raw, err := json.Marshal(enc)
	require.NoError(t, err)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded any
	require.NoError(t, dec.Decode(&decoded))

	v, err := r.Decode(decoded)
	require.NoError(t, err)
	back, ok := v.(*script.Dict)
	require.True(t, ok)
	assert.Equal(t, []script.Value{"zeta", "alpha", "mid"}, back.Keys())
	n, _ := back.Get("alpha")
	assert.Equal(t, 5, n)

	sorted := script.NewDict()
	require.NoError(t, sorted.Set("a", 1))
	require.NoError(t, sorted.Set("b", 2))
	enc, err = r.Encode(sorted)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, enc, "sorted dicts stay plain objects")
}

func TestEncodeVars_SkipsFunctions(t *testing.T) {
	r := registry.NewRegistry()
	vars := map[string]script.Value{
		"gold": 3,
		"fn":   script.WrapFunc("fn", func() int { return 1 }),
		"math": script.Module{"pi": math.Pi},
	}
	state, err := r.EncodeVars(vars)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"gold": 3}, state)

	back, err := r.DecodeVars(map[string]any{"gold": json.Number("3")})
	require.NoError(t, err)
	assert.Equal(t, map[string]script.Value{"gold": 3}, back)
}

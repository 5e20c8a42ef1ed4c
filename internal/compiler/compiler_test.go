package compiler_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(v string) *domain.Text { return &domain.Text{Value: v} }

func nl() *domain.Text { return text("\n") }

func TestCompile_HelloWorld(t *testing.T) {
	doc, err := compiler.Compile(":: Start\nHello {1+1}\n+ [Go] -> End\n\n:: End\nBye")
	require.NoError(t, err)

	assert.Equal(t, domain.FormatVersion, doc.Version)
	assert.Equal(t, "Start", doc.InitialPassage)
	require.Len(t, doc.Passages, 2)

	start := doc.Passages["Start"]
	assert.Equal(t, domain.Nodes{text("Hello "), &domain.Expression{Code: "1+1"}, nl()}, start.Content)
	require.Len(t, start.Choices, 1)
	assert.Equal(t, "End", start.Choices[0].Target)
	assert.True(t, start.Choices[0].Sticky)
	assert.Equal(t, "Go", start.Choices[0].Source())

	assert.Equal(t, domain.Nodes{text("Bye"), nl()}, doc.Passages["End"].Content)
	assert.Empty(t, doc.Passages["End"].Choices)
}

func TestCompile_DuplicatePassagesAggregated(t *testing.T) {
	src := ":: Foo\na\n:: Bar\nb\n:: Foo\nc\n:: Bar\nd\n:: Baz\n"
	_, err := compiler.Compile(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrDuplicatePassage))

	var dup *compiler.DuplicatePassageError
	require.True(t, errors.As(err, &dup))
	require.Len(t, dup.Duplicates, 2)
	assert.Equal(t, "Foo", dup.Duplicates[0].Name)
	assert.Equal(t, []compiler.Location{{Line: 1}, {Line: 5}}, dup.Duplicates[0].Locations)
	assert.Equal(t, "Bar", dup.Duplicates[1].Name)
	assert.Contains(t, err.Error(), "line 1, line 5")
}

func TestCompile_ConditionalSyntaxes(t *testing.T) {
	want := &domain.Conditional{Branches: []domain.Branch{
		{Condition: "a", Content: domain.Nodes{text("A"), nl()}},
		{Condition: "b", Content: domain.Nodes{text("B"), nl()}},
		{Condition: "True", Content: domain.Nodes{text("C"), nl()}},
	}}

	sources := map[string]string{
		"colon":   ":: Start\n@if a:\n  A\n@elif b:\n  B\n@else:\n  C\n@endif\n",
		"bracket": ":: Start\n<<if a>>\n  A\n<<elif b>>\n  B\n<<else>>\n  C\n<<endif>>\n",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			doc, err := compiler.Compile(src)
			require.NoError(t, err)
			content := doc.Passages["Start"].Content
			require.NotEmpty(t, content)
			assert.Equal(t, want, content[0])
		})
	}
}

func TestCompile_NestedConditional(t *testing.T) {
	src := `:: Start
@if outer:
    @if inner:
        deep
    @else:
        shallow
    @endif
@else:
    none
@endif`
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	cond, ok := doc.Passages["Start"].Content[0].(*domain.Conditional)
	require.True(t, ok)
	require.Len(t, cond.Branches, 2)
	assert.Equal(t, "True", cond.Branches[1].Condition)

	inner, ok := cond.Branches[0].Content[0].(*domain.Conditional)
	require.True(t, ok, "nested conditional expected, got %#v", cond.Branches[0].Content)
	assert.Equal(t, "inner", inner.Branches[0].Condition)
	assert.Equal(t, domain.Nodes{text("deep"), nl()}, inner.Branches[0].Content)
}

func TestCompile_LoopWithGlue(t *testing.T) {
	doc, err := compiler.Compile(":: Start\n@for x in [1,2,3]:\n{x}<>\n@endfor")
	require.NoError(t, err)

	loop, ok := doc.Passages["Start"].Content[0].(*domain.ForLoop)
	require.True(t, ok)
	assert.Equal(t, "x", loop.Variable)
	assert.Equal(t, "[1,2,3]", loop.Collection)
	assert.Equal(t, domain.Nodes{&domain.Expression{Code: "x"}}, loop.Content)
}

func TestCompile_NestedLoopsAndChoices(t *testing.T) {
	src := `:: Start
<<for k, v in pairs>>
  @for i in range(v):
    *<>
  @endfor
  + [Pick {k}] -> Picked
<<endfor>>`
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	outer := doc.Passages["Start"].Content[0].(*domain.ForLoop)
	assert.Equal(t, "k, v", outer.Variable)
	require.Len(t, outer.Choices, 1)
	assert.Equal(t, "Pick {k}", outer.Choices[0].Source())

	inner, ok := outer.Content[0].(*domain.ForLoop)
	require.True(t, ok)
	assert.Equal(t, "range(v)", inner.Collection)
}

func TestCompile_Assignments(t *testing.T) {
	src := `:: Start
~ gold = 10
~ gold += 5 // bonus
~ gold //= 2
~ items = [
    "sword",
    "shield",
]
~ notify("hi")
@if gold > 3:
  ~ rich = True
@endif`
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	p := doc.Passages["Start"]
	require.Len(t, p.Execute, 5)
	assert.Equal(t, &domain.SetVar{Var: "gold", Expression: "10"}, p.Execute[0])
	assert.Equal(t, &domain.SetVar{Var: "gold", Expression: "gold + (5)"}, p.Execute[1])
	assert.Equal(t, &domain.SetVar{Var: "gold", Expression: "gold // (2)"}, p.Execute[2])
	items := p.Execute[3].(*domain.SetVar)
	assert.Equal(t, "items", items.Var)
	assert.Contains(t, items.Expression, `"shield"`)
	assert.Equal(t, &domain.ExpressionStatement{Code: `notify("hi")`}, p.Execute[4])

	cond := p.Content[0].(*domain.Conditional)
	assert.Equal(t, domain.Nodes{&domain.SetVar{Var: "rich", Expression: "True"}}, cond.Branches[0].Content)
}

func TestCompile_ScriptBlocks(t *testing.T) {
	src := ":: Start\n<<py\n    x = 1\n    if x:\n        y = 2\n>>\n@py:\nz = 3\n@endpy\n@if True:\n  @py:\n  w = 4\n  @endpy\n@endif"
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	p := doc.Passages["Start"]
	require.Len(t, p.Execute, 2)
	assert.Equal(t, "x = 1\nif x:\n    y = 2", p.Execute[0].(*domain.PythonBlock).Code)
	assert.Equal(t, "z = 3", p.Execute[1].(*domain.PythonBlock).Code)

	cond := p.Content[0].(*domain.Conditional)
	assert.Equal(t, domain.Nodes{&domain.PythonBlock{Code: "w = 4"}}, cond.Branches[0].Content)
}

func TestCompile_TagsCommentsAndChoices(t *testing.T) {
	src := `:: Start ^INTRO ^MOOD:dark // header comment
A path \// not a comment // a comment ^LOUD
* {gold > 5} [Buy] -> Shop ^SHOP
{met} + [Talk] -> Talk
+ [Leave] -> End // bye
:: Shop
:: Talk
:: End`
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	p := doc.Passages["Start"]
	assert.Equal(t, []string{"INTRO", "MOOD:dark"}, p.Tags)
	assert.Equal(t, &domain.Text{Value: "A path // not a comment "}, p.Content[0])

	require.Len(t, p.Choices, 3)
	assert.Equal(t, "gold > 5", p.Choices[0].Condition)
	assert.False(t, p.Choices[0].Sticky)
	assert.Equal(t, []string{"SHOP"}, p.Choices[0].Tags)
	assert.Equal(t, "met", p.Choices[1].Condition)
	assert.True(t, p.Choices[1].Sticky)
	assert.Equal(t, "End", p.Choices[2].Target)
}

func TestCompile_ContentTags(t *testing.T) {
	doc, err := compiler.Compile(":: Start\nThe {card} glows ^CARD:major\n")
	require.NoError(t, err)
	content := doc.Passages["Start"].Content
	require.Len(t, content, 4)
	assert.Equal(t, []string{"CARD:major"}, content[2].(*domain.Text).Tags)
}

func TestCompile_ImportsAndMetadata(t *testing.T) {
	src := `# header comment
import random
from math import floor

@metadata
  title: The Cave
  author: Anon

:: Start
Hi`
	doc, err := compiler.Compile(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"import random", "from math import floor"}, doc.Imports)
	assert.Equal(t, map[string]string{"title": "The Cave", "author": "Anon"}, doc.Metadata)
	assert.Equal(t, domain.Nodes{text("Hi"), nl()}, doc.Passages["Start"].Content)
}

func TestCompile_ImportAfterContent(t *testing.T) {
	_, err := compiler.Compile(":: Start\nHi\nimport os\n")
	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, compiler.KindImport, cerr.Kind)
	assert.Equal(t, 3, cerr.Line)
}

func TestCompile_ImportInsideScriptBlockAllowed(t *testing.T) {
	_, err := compiler.Compile(":: Start\n@py:\nimport math\nx = math.floor(1.5)\n@endpy\n")
	assert.NoError(t, err)
}

func TestCompile_Directives(t *testing.T) {
	src := `:: Start
@render:react card(hero, size="big") // inline
@render plain
@input name="player_name" placeholder="Your name"
@input label="no name"`
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	c := doc.Passages["Start"].Content
	require.Len(t, c, 3)
	assert.Equal(t, &domain.RenderDirective{Name: "card", Args: `hero, size="big"`, FrameworkHint: "react"}, c[0])
	assert.Equal(t, &domain.RenderDirective{Name: "plain"}, c[1])
	assert.Equal(t, &domain.InputDirective{Name: "player_name", Label: "Player Name", Placeholder: "Your name"}, c[2])
}

func TestCompile_Jumps(t *testing.T) {
	doc, err := compiler.Compile(":: Start\nBefore\n-> Next // go\nAfter\n:: Next\n")
	require.NoError(t, err)
	assert.Contains(t, doc.Passages["Start"].Content, domain.ContentNode(&domain.Jump{Target: "Next"}))
}

func TestCompile_StartResolution(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		doc, err := compiler.Compile("@start Two\n:: One\n:: Two\n")
		require.NoError(t, err)
		assert.Equal(t, "Two", doc.InitialPassage)
	})
	t.Run("convention", func(t *testing.T) {
		doc, err := compiler.Compile(":: One\n:: Start\n")
		require.NoError(t, err)
		assert.Equal(t, "Start", doc.InitialPassage)
	})
	t.Run("first passage fallback", func(t *testing.T) {
		doc, err := compiler.Compile(":: One\n:: Two\n")
		require.NoError(t, err)
		assert.Equal(t, "One", doc.InitialPassage)
	})
	t.Run("missing target", func(t *testing.T) {
		_, err := compiler.Compile("@start Nowhere\n:: One\n")
		var cerr *compiler.Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, compiler.KindStart, cerr.Kind)
		assert.Contains(t, cerr.Hint, "One")
	})
	t.Run("no passages", func(t *testing.T) {
		_, err := compiler.Compile("just text\n")
		assert.ErrorIs(t, err, compiler.ErrNoPassages)
	})
}

func TestCompile_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind string
		line int
		msg  string
	}{
		{"endif with colon", ":: Start\n@if x:\nA\n@endif:\n", compiler.KindSyntax, 4, "@endif should not have a colon"},
		{"endfor with colon", ":: Start\n@for x in y:\nA\n@endfor:\n", compiler.KindSyntax, 4, "@endfor should not have a colon"},
		{"if without colon", ":: Start\n@if x\nA\n@endif\n", compiler.KindSyntax, 2, "missing colon"},
		{"unclosed if at eof", ":: Start\n@if x:\nA\n", compiler.KindUnclosed, 2, "never closed"},
		{"unclosed across passage", ":: Start\n<<if x>>\nA\n:: Next\n<<endif>>\n", compiler.KindUnclosed, 2, "never closed"},
		{"unclosed loop", ":: Start\n@for x in y:\nA\n", compiler.KindUnclosed, 2, "@for"},
		{"unclosed py", ":: Start\n@py:\nx = 1\n", compiler.KindUnclosed, 2, "@py"},
		{"stray endif", ":: Start\nA\n@endif\n", compiler.KindMismatched, 3, "without a matching @if"},
		{"elif after else", ":: Start\n@if a:\nA\n@else:\nB\n@elif c:\nC\n@endif\n", compiler.KindMismatched, 6, "after the else"},
		{"unknown directive", ":: Start\n@iff x:\n", compiler.KindSyntax, 2, "Unrecognized directive: @iff"},
		{"bad passage name", ":: Two Words\n", compiler.KindSyntax, 1, "Invalid passage name"},
		{"malformed choice", ":: Start\n+ [Go] Somewhere\n", compiler.KindSyntax, 2, "Malformed choice"},
		{"py with trailing text", ":: Start\n@py: x = 1\n", compiler.KindSyntax, 2, "@py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.Compile(tt.src)
			var cerr *compiler.Error
			require.True(t, errors.As(err, &cerr), "expected compiler.Error, got %v", err)
			assert.Equal(t, tt.kind, cerr.Kind)
			assert.Equal(t, tt.line, cerr.Line)
			assert.Contains(t, cerr.Message, tt.msg)
		})
	}
}

func TestError_Format(t *testing.T) {
	_, err := compiler.Compile(":: Start\nA\n@if x:\nB\n@endif:\nC\nD\n", compiler.WithPath("story.bard"))
	require.Error(t, err)

	report := err.Error()
	assert.True(t, strings.HasPrefix(report, "✗ Syntax Error in story.bard on line 5:"), report)
	assert.Contains(t, report, "     5 | @endif:")
	assert.Contains(t, report, "     3 | @if x:")
	assert.Contains(t, report, "     7 | D")
	assert.NotContains(t, report, "     2 | A")
	assert.Contains(t, report, "^^^^^^^")
	assert.Contains(t, report, "Hint:")
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestCompileFile_Includes(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.bard":          "@include parts/shared.bard\n:: Start\nHello\n+ [Go] -> Shop\n@include parts/shared.bard2\n",
		"parts/shared.bard":  ":: Shop\nWares\n@include common.bard\n",
		"parts/common.bard":  "# shared helpers\n",
		"parts/shared.bard2": ":: Back\nAgain\n@include common.bard\n",
	})
	doc, err := compiler.CompileFile(filepath.Join(dir, "main.bard"))
	require.NoError(t, err)
	assert.Contains(t, doc.Passages, "Shop")
	assert.Contains(t, doc.Passages, "Back")
	assert.Equal(t, "Start", doc.InitialPassage)
}

func TestCompileFile_IncludeCycle(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.bard": ":: Start\n@include b.bard\n",
		"b.bard": ":: B\n@include a.bard\n",
	})
	_, err := compiler.CompileFile(filepath.Join(dir, "a.bard"))
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrIncludeCycle)

	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, compiler.KindInclude, cerr.Kind)
	assert.Equal(t, filepath.Join(dir, "b.bard"), cerr.File)
	assert.Equal(t, 2, cerr.Line)
}

func TestCompileFile_IncludeMissing(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.bard": ":: Start\n\n@include nope.bard\n"})
	_, err := compiler.CompileFile(filepath.Join(dir, "a.bard"))
	assert.ErrorIs(t, err, compiler.ErrIncludeNotFound)

	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 3, cerr.Line)
}

func TestCompileFile_ErrorsPointIntoIncludedFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.bard": ":: Start\nHi\n@include part.bard\n",
		"part.bard": ":: Part\nfine\n@endfor\n",
	})
	_, err := compiler.CompileFile(filepath.Join(dir, "main.bard"))
	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, filepath.Join(dir, "part.bard"), cerr.File)
	assert.Equal(t, 3, cerr.Line)
}

func TestCompile_WhitespaceCleanup(t *testing.T) {
	src := ":: Start\nIntro\n\n@if x:\n  X\n@endif\n\n\nOutro\n\n\n"
	doc, err := compiler.Compile(src)
	require.NoError(t, err)

	c := doc.Passages["Start"].Content
	// Intro \n [\n dropped] cond [\n dropped] \n Outro \n (trailing trimmed)
	require.Len(t, c, 6)
	assert.Equal(t, text("Intro"), c[0])
	assert.Equal(t, nl(), c[1])
	assert.IsType(t, &domain.Conditional{}, c[2])
	assert.Equal(t, nl(), c[3])
	assert.Equal(t, text("Outro"), c[4])
	assert.Equal(t, nl(), c[5])
}

func TestMarshal_WireShape(t *testing.T) {
	doc, err := compiler.Compile(":: Start\nHi {name}\n")
	require.NoError(t, err)
	data, err := compiler.Marshal(doc)
	require.NoError(t, err)
	for _, key := range []string{`"version": "0.1.0"`, `"initial_passage": "Start"`, `"passages"`, `"type": "expression"`} {
		assert.Contains(t, string(data), key)
	}
}

package render

import (
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStringSprig(t *testing.T) {
	e := NewEngine(Options{})
	out, err := e.RenderString("t", `{{ .env | upper }}/{{ default "x" .missing }}/{{ squote "a b" }}`, map[string]any{"env": "dev"})
	require.NoError(t, err)
	assert.Equal(t, "DEV/x/'a b'", out)
}

func TestRenderStrictMissingKey(t *testing.T) {
	e := NewEngine(Options{Strict: true})
	_, err := e.RenderString("t", `{{ .nope }}`, map[string]any{})
	assert.Error(t, err)

	lax := NewEngine(Options{})
	_, err = lax.RenderString("t", `{{ .nope }}`, map[string]any{})
	assert.NoError(t, err)
}

func TestRenderCustomFuncsOverride(t *testing.T) {
	e := NewEngine(Options{Funcs: template.FuncMap{"upper": func(s string) string { return "U:" + s }}})
	out, err := e.RenderString("t", `{{ upper "a" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "U:a", out)
}

func TestRenderParseError(t *testing.T) {
	_, err := NewEngine(Options{}).Render("t", `{{ .a `, nil)
	assert.Error(t, err)
}
